package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/rawblock/fraudnet-engine/internal/graph"
	"github.com/rawblock/fraudnet-engine/pkg/models"
	"github.com/shopspring/decimal"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("fraudnet-engine CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Run fraud-ring detection over a CSV transaction batch")
	fmt.Println("  help      Show this help message")
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	pretty := fs.Bool("pretty", true, "pretty-print the JSON result")
	fs.Parse(os.Args[2:])

	args := fs.Args()
	if len(args) != 1 {
		log.Fatal("usage: cli analyze <csv-path>")
	}

	txns, skipped, err := loadTransactionCSV(args[0])
	if err != nil {
		log.Fatalf("failed to read %s: %v", args[0], err)
	}
	if skipped > 0 {
		log.Printf("skipped %d rows with unparseable amounts", skipped)
	}

	result := graph.Analyze(txns)

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		log.Fatalf("failed to marshal result: %v", err)
	}

	fmt.Println(string(out))
}

// loadTransactionCSV parses a `transaction_id,sender_id,receiver_id,amount,timestamp`
// CSV file. Rows with an unparseable amount are silently dropped and counted;
// rows with an unparseable timestamp are kept with TimestampValid=false so
// they still contribute to adjacency and aggregate statistics.
func loadTransactionCSV(path string) ([]models.Transaction, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}
	col, err := columnIndex(header)
	if err != nil {
		return nil, 0, err
	}

	var txns []models.Transaction
	var skipped int
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		amt, err := decimal.NewFromString(row[col.amount])
		if err != nil {
			skipped++
			continue
		}

		ts, valid := parseTimestamp(row[col.timestamp])
		txns = append(txns, models.Transaction{
			TransactionID:  row[col.transactionID],
			SenderID:       row[col.senderID],
			ReceiverID:     row[col.receiverID],
			Amount:         amt,
			Timestamp:      ts,
			TimestampValid: valid,
		})
	}
	return txns, skipped, nil
}

type csvColumns struct {
	transactionID, senderID, receiverID, amount, timestamp int
}

func columnIndex(header []string) (csvColumns, error) {
	col := csvColumns{-1, -1, -1, -1, -1}
	for i, name := range header {
		switch name {
		case "transaction_id":
			col.transactionID = i
		case "sender_id":
			col.senderID = i
		case "receiver_id":
			col.receiverID = i
		case "amount":
			col.amount = i
		case "timestamp":
			col.timestamp = i
		}
	}
	if col.transactionID < 0 || col.senderID < 0 || col.receiverID < 0 || col.amount < 0 || col.timestamp < 0 {
		return col, fmt.Errorf("missing one or more required columns: transaction_id, sender_id, receiver_id, amount, timestamp")
	}
	return col, nil
}

func parseTimestamp(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(epoch, 0).UTC(), true
	}
	return time.Time{}, false
}
