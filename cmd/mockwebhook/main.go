// Command mockwebhook sends a signed provider notification to a local
// instance, for exercising the reconciliation path without the real gateway.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		TxRef  string `json:"tx_ref"`
		FlwRef string `json:"flw_ref"`
		Status string `json:"status"`
		Amount string `json:"amount"`
	} `json:"data"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/v1/payments/webhook", "Webhook URL")
	secret := flag.String("secret", os.Getenv("FLW_WEBHOOK_SECRET"), "Webhook shared secret")
	txRef := flag.String("tx-ref", "", "Transaction ref of an initiated payment")
	status := flag.String("status", "successful", "Provider status (successful, failed, ...)")
	amount := flag.String("amount", "50000", "Amount as the provider reports it")
	tamper := flag.Bool("tamper", false, "Flip a byte after signing, to exercise the rejection path")
	dryRun := flag.Bool("dry-run", false, "Only print the signature header, don't send")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "Error: secret not provided and FLW_WEBHOOK_SECRET not set")
		os.Exit(1)
	}
	if *txRef == "" {
		fmt.Fprintln(os.Stderr, "Error: -tx-ref is required")
		os.Exit(1)
	}

	payload := webhookPayload{Event: "charge.completed"}
	payload.Data.TxRef = *txRef
	payload.Data.FlwRef = "FLW-MOCK-" + *txRef
	payload.Data.Status = *status
	payload.Data.Amount = *amount

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	mac := hmac.New(sha256.New, []byte(*secret))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	if *tamper {
		body = bytes.Replace(body, []byte(*amount), []byte("1"), 1)
	}

	fmt.Printf("verif-hash: %s\n", sig)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("verif-hash", sig)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending webhook: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response: %d %s\n", resp.StatusCode, string(respBody))
}
