// Command poller watches a payment until it resolves, the way the storefront
// return page does after the gateway redirects the payer back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"yangu_payments/internal/poller"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "Payments service base URL")
	paymentID := flag.String("payment", "", "Payment id stored before the redirect")
	token := flag.String("token", os.Getenv("PAYMENTS_TOKEN"), "Bearer token of the payer")
	interval := flag.Duration("interval", poller.DefaultInterval, "Delay between polls")
	attempts := flag.Int("attempts", poller.DefaultMaxAttempts, "Maximum number of polls")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := poller.NewClient(*baseURL, *token, nil)
	res, err := client.Poll(ctx, *paymentID, poller.Config{
		Interval:    *interval,
		MaxAttempts: *attempts,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch res.State {
	case poller.StatePaid:
		fmt.Printf("Payment confirmed after %d attempt(s)\n", res.Attempts)
	case poller.StateFailed:
		fmt.Println("Payment failed. Please try again.")
		os.Exit(2)
	case poller.StateTimeout:
		fmt.Printf("Payment pending: verification timed out after %s. Check your order history.\n",
			time.Duration(res.Attempts)*(*interval))
		os.Exit(3)
	case poller.StateMissingReference:
		fmt.Fprintln(os.Stderr, "Error: -payment is required (missing payment reference)")
		os.Exit(1)
	}
}
