package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"yangu_payments/internal/domain/entities"
	"yangu_payments/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultPaymentsTableName    = "payments"
	paymentsTransactionRefIndex = "transaction_ref-index"
)

type paymentItem struct {
	ID                     string  `dynamodbav:"id"`
	OrderRef               string  `dynamodbav:"order_ref,omitempty"`
	UserRef                string  `dynamodbav:"user_ref,omitempty"`
	Amount                 float64 `dynamodbav:"amount"`
	Currency               string  `dynamodbav:"currency"`
	Provider               string  `dynamodbav:"provider"`
	TransactionRef         string  `dynamodbav:"transaction_ref"`
	ProviderTransactionRef string  `dynamodbav:"provider_transaction_ref,omitempty"`
	Status                 string  `dynamodbav:"status"`
	ProviderPayload        string  `dynamodbav:"provider_payload,omitempty"`
	CreatedAt              string  `dynamodbav:"created_at"`
	UpdatedAt              string  `dynamodbav:"updated_at"`
}

// PaymentDynamoRepository persists Payment entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: transaction_ref-index (PK: transaction_ref)
//
// Status transitions are conditional writes guarded by the current status, so
// concurrent webhook deliveries (or a webhook racing an admin override) can
// never both apply: the loser hits ConditionalCheckFailedException and is
// reported as a no-op.

type PaymentDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IPaymentRepository = (*PaymentDynamoRepository)(nil)

func NewPaymentDynamoRepository(ddb *dynamodb.Client) *PaymentDynamoRepository {
	return &PaymentDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("PAYMENTS_TABLE", defaultPaymentsTableName),
	}
}

func (r *PaymentDynamoRepository) Create(ctx context.Context, p entities.Payment) (entities.Payment, error) {
	it := toPaymentItem(p)
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Payment{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Payment{}, err
	}
	return p, nil
}

func (r *PaymentDynamoRepository) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		// The polling client must see the latest committed transition.
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Item) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) GetByTransactionRef(ctx context.Context, transactionRef string) (entities.Payment, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(paymentsTransactionRefIndex),
		KeyConditionExpression: aws.String("transaction_ref = :ref"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: transactionRef},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Items) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) Finalize(ctx context.Context, id string, status entities.PaymentStatus, payload json.RawMessage, providerTransactionRef string) (entities.Payment, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	expr := "SET #status = :status, #updated_at = :updated_at"
	vals := map[string]types.AttributeValue{
		":status":     &types.AttributeValueMemberS{Value: string(status)},
		":updated_at": &types.AttributeValueMemberS{Value: now},
		":initiated":  &types.AttributeValueMemberS{Value: string(entities.PaymentStatusInitiated)},
	}
	names := map[string]string{
		"#status":     "status",
		"#updated_at": "updated_at",
	}
	if len(payload) > 0 {
		expr += ", #provider_payload = :provider_payload"
		vals[":provider_payload"] = &types.AttributeValueMemberS{Value: string(payload)}
		names["#provider_payload"] = "provider_payload"
	}
	if providerTransactionRef != "" {
		expr += ", #provider_tx = :provider_tx"
		vals[":provider_tx"] = &types.AttributeValueMemberS{Value: providerTransactionRef}
		names["#provider_tx"] = "provider_transaction_ref"
	}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       aws.String("#status = :initiated"),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeValues: vals,
		ExpressionAttributeNames:  names,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			// Already terminal; report what is stored now.
			current, getErr := r.GetByID(ctx, id)
			if getErr != nil {
				return entities.Payment{}, false, getErr
			}
			return current, false, nil
		}
		return entities.Payment{}, false, err
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Payment{}, false, err
	}
	return fromPaymentItem(it), true, nil
}

func (r *PaymentDynamoRepository) OverrideStatus(ctx context.Context, id string, status entities.PaymentStatus) (entities.Payment, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		// attribute_exists keeps the override from materializing a phantom
		// row; <> makes "already that status" a detectable no-op.
		ConditionExpression: aws.String("attribute_exists(#id) AND #status <> :status"),
		UpdateExpression:    aws.String("SET #status = :status, #updated_at = :updated_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: string(status)},
			":updated_at": &types.AttributeValueMemberS{Value: now},
		},
		ExpressionAttributeNames: map[string]string{
			"#id":         "id",
			"#status":     "status",
			"#updated_at": "updated_at",
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.Payment{}, nil
		}
		return entities.Payment{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) AttachProviderPayload(ctx context.Context, id string, payload json.RawMessage) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression:    aws.String("SET #provider_payload = :payload, #updated_at = :updated_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":payload":    &types.AttributeValueMemberS{Value: string(payload)},
			":updated_at": &types.AttributeValueMemberS{Value: now},
		},
		ExpressionAttributeNames: map[string]string{
			"#id":               "id",
			"#provider_payload": "provider_payload",
			"#updated_at":       "updated_at",
		},
	})
	return err
}

func (r *PaymentDynamoRepository) List(ctx context.Context, filter interfaces.PaymentFilter) ([]entities.Payment, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}

	filterExpr := ""
	vals := map[string]types.AttributeValue{}
	names := map[string]string{}
	appendCond := func(cond string) {
		if filterExpr != "" {
			filterExpr += " AND "
		}
		filterExpr += cond
	}

	if filter.Status != "" {
		appendCond("#status = :status")
		vals[":status"] = &types.AttributeValueMemberS{Value: string(filter.Status)}
		names["#status"] = "status"
	}
	if filter.Provider != "" {
		appendCond("#provider = :provider")
		vals[":provider"] = &types.AttributeValueMemberS{Value: filter.Provider}
		names["#provider"] = "provider"
	}
	if !filter.StartDate.IsZero() {
		appendCond("#created_at >= :start")
		vals[":start"] = &types.AttributeValueMemberS{Value: filter.StartDate.UTC().Format(time.RFC3339Nano)}
		names["#created_at"] = "created_at"
	}
	if !filter.EndDate.IsZero() {
		appendCond("#created_at <= :end")
		vals[":end"] = &types.AttributeValueMemberS{Value: filter.EndDate.UTC().Format(time.RFC3339Nano)}
		names["#created_at"] = "created_at"
	}
	if filterExpr != "" {
		input.FilterExpression = aws.String(filterExpr)
		input.ExpressionAttributeValues = vals
		input.ExpressionAttributeNames = names
	}

	var items []entities.Payment
	paginator := dynamodb.NewScanPaginator(r.ddb, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it paymentItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			items = append(items, fromPaymentItem(it))
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	if filter.Limit > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * filter.Limit
		if start >= len(items) {
			return []entities.Payment{}, nil
		}
		end := start + filter.Limit
		if end > len(items) {
			end = len(items)
		}
		items = items[start:end]
	}
	return items, nil
}

func toPaymentItem(p entities.Payment) paymentItem {
	return paymentItem{
		ID:                     p.ID,
		OrderRef:               p.OrderRef,
		UserRef:                p.UserRef,
		Amount:                 p.Amount,
		Currency:               p.Currency,
		Provider:               p.Provider,
		TransactionRef:         p.TransactionRef,
		ProviderTransactionRef: p.ProviderTransactionRef,
		Status:                 string(p.Status),
		ProviderPayload:        string(p.ProviderPayload),
		CreatedAt:              p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:              p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromPaymentItem(it paymentItem) entities.Payment {
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	return entities.Payment{
		ID:                     it.ID,
		OrderRef:               it.OrderRef,
		UserRef:                it.UserRef,
		Amount:                 it.Amount,
		Currency:               it.Currency,
		Provider:               it.Provider,
		TransactionRef:         it.TransactionRef,
		ProviderTransactionRef: it.ProviderTransactionRef,
		Status:                 entities.PaymentStatus(it.Status),
		ProviderPayload:        json.RawMessage(it.ProviderPayload),
		CreatedAt:              createdAt,
		UpdatedAt:              updatedAt,
	}
}
