// Command concurrency drives several receivers through the keystroke API
// against one multi-receiver batch and records throughput and latency.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type WorkflowResult struct {
	Success  bool
	Latency  time.Duration
	ErrorMsg string
}

type operator struct {
	id, password string
}

// maxKeystrokes bounds one pallet; a screen that keeps rejecting input fails the pallet
const maxKeystrokes = 40

func main() {
	workers := flag.Int("workers", 2, "Number of concurrent receivers")
	duration := flag.Int("duration", 30, "Test duration in seconds")
	port := flag.String("port", "6000", "Receiving node port")
	confirmation := flag.String("conf", "CONF-1001", "Confirmation # of a multi-receiver batch")
	product := flag.String("product", "P-100", "Product to receive")
	quantity := flag.String("qty", "50", "Cases per pallet")
	operators := flag.String("operators", "OP-001:receiver1,OP-002:receiver2", "Comma separated operator:password pairs, one per worker")
	flag.Parse()

	ops := parseOperators(*operators)
	if *workers > len(ops) {
		fmt.Printf("Only %d operators configured, limiting workers to %d\n", len(ops), len(ops))
		*workers = len(ops)
	}

	recordsDir := "./records"
	os.MkdirAll(recordsDir, 0755)

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(recordsDir, fmt.Sprintf("concurrency_%s_w%d_d%ds.csv", timestamp, *workers, *duration))
	baseURL := fmt.Sprintf("http://127.0.0.1:%s", *port)

	fmt.Println("========================================")
	fmt.Println("   RECEIVING CONCURRENCY BENCHMARK")
	fmt.Println("========================================")
	fmt.Printf("Workers:      %d\n", *workers)
	fmt.Printf("Duration:     %ds\n", *duration)
	fmt.Printf("URL:          %s\n", baseURL)
	fmt.Printf("Confirmation: %s\n", *confirmation)
	fmt.Printf("Product:      %s x %s\n", *product, *quantity)
	fmt.Printf("Output:       %s\n", filename)
	fmt.Println("========================================")

	stopChan := make(chan struct{})
	resultsChan := make(chan WorkflowResult, *workers*10)

	var totalReqs, successReqs, failedReqs, totalLatency int64
	var minLatency int64 = 1<<63 - 1
	var maxLatency int64

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		d := &driver{
			client:       NewHTTPClient(baseURL),
			op:           ops[i],
			terminal:     fmt.Sprintf("BM%02d", i+1),
			confirmation: *confirmation,
			product:      *product,
			quantity:     *quantity,
			runID:        timestamp[len(timestamp)-8:],
		}
		if err := d.start(); err != nil {
			fmt.Printf("Worker %d could not start: %v\n", i, err)
			continue
		}
		wg.Add(1)
		go d.run(stopChan, resultsChan, &wg)
	}

	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for result := range resultsChan {
			n := atomic.AddInt64(&totalReqs, 1)
			if !result.Success {
				atomic.AddInt64(&failedReqs, 1)
				fmt.Printf("\nPallet failed: %s\n", result.ErrorMsg)
				continue
			}
			atomic.AddInt64(&successReqs, 1)
			latencyNs := result.Latency.Nanoseconds()
			atomic.AddInt64(&totalLatency, latencyNs)
			if latencyNs < minLatency {
				minLatency = latencyNs
			}
			if latencyNs > maxLatency {
				maxLatency = latencyNs
			}
			if n%10 == 0 {
				fmt.Printf("\rPallets: %d | Success: %d | Failed: %d", n, successReqs, failedReqs)
			}
		}
	}()

	startTime := time.Now()
	fmt.Printf("Running benchmark for %d seconds...\n", *duration)
	time.Sleep(time.Duration(*duration) * time.Second)

	close(stopChan)
	wg.Wait()
	close(resultsChan)
	collectorWg.Wait()

	elapsed := time.Since(startTime)
	tps := float64(successReqs) / elapsed.Seconds()
	avgLatency := time.Duration(0)
	if successReqs > 0 {
		avgLatency = time.Duration(totalLatency / successReqs)
	}
	if successReqs == 0 {
		minLatency = 0
	}

	fmt.Println("\n\n========================================")
	fmt.Println("   BENCHMARK RESULTS")
	fmt.Println("========================================")
	fmt.Printf("Pallets:             %d\n", totalReqs)
	fmt.Printf("Committed:           %d\n", successReqs)
	fmt.Printf("Failed:              %d\n", failedReqs)
	fmt.Printf("Duration:            %v\n", elapsed)
	fmt.Printf("Pallets per second:  %.2f\n", tps)
	fmt.Printf("Avg pallet latency:  %v\n", avgLatency)
	fmt.Printf("Min pallet latency:  %v\n", time.Duration(minLatency))
	fmt.Printf("Max pallet latency:  %v\n", time.Duration(maxLatency))
	fmt.Println("========================================")

	file, err := os.Create(filename)
	if err != nil {
		fmt.Printf("Error creating file: %v\n", err)
		return
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{
		"Workers", "Duration_s", "Pallets", "Committed", "Failed",
		"Pallets_Per_Second", "Avg_Latency_ms", "Min_Latency_ms", "Max_Latency_ms",
	})
	writer.Write([]string{
		fmt.Sprintf("%d", *workers),
		fmt.Sprintf("%d", *duration),
		fmt.Sprintf("%d", totalReqs),
		fmt.Sprintf("%d", successReqs),
		fmt.Sprintf("%d", failedReqs),
		fmt.Sprintf("%.2f", tps),
		fmt.Sprintf("%.2f", float64(avgLatency.Microseconds())/1000),
		fmt.Sprintf("%.2f", float64(time.Duration(minLatency).Microseconds())/1000),
		fmt.Sprintf("%.2f", float64(time.Duration(maxLatency).Microseconds())/1000),
	})

	fmt.Printf("\nResults saved to: %s\n", filename)
}

func parseOperators(s string) []operator {
	var ops []operator
	for _, pair := range strings.Split(s, ",") {
		id, pw, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if ok && id != "" {
			ops = append(ops, operator{id: id, password: pw})
		}
	}
	return ops
}

// driver is one handheld receiving pallets in a loop
type driver struct {
	client       *HTTPClient
	op           operator
	terminal     string
	confirmation string
	product      string
	quantity     string
	runID        string
	seq          int
}

// start signs in and opens the batch
func (d *driver) start() error {
	if err := d.client.Login(d.op.id, d.op.password, d.terminal); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	// leave whatever screen a previous run stopped on
	if _, err := d.client.Key("", "F3"); err != nil {
		return fmt.Errorf("exit: %w", err)
	}
	s, err := d.client.Key(d.confirmation, "")
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if s.NextStep != "product" {
		return fmt.Errorf("confirmation: expected product screen, got %s (%s)", s.NextStep, s.Error)
	}
	return nil
}

func (d *driver) run(stopChan chan struct{}, resultsChan chan WorkflowResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-stopChan:
			return
		default:
			start := time.Now()
			err := d.receivePallet()
			result := WorkflowResult{Success: err == nil, Latency: time.Since(start)}
			if err != nil {
				result.ErrorMsg = err.Error()
			}
			resultsChan <- result
		}
	}
}

// receivePallet answers every screen from the product prompt until the
// pallet is committed and the product prompt comes back
func (d *driver) receivePallet() error {
	d.seq++
	palletID := fmt.Sprintf("BM%s%s%04d", d.runID, d.terminal[2:], d.seq)
	now := time.Now()
	answers := map[string]string{
		"product":             d.product,
		"purchase-order":      "",
		"quick-note":          "",
		"pallet-id":           palletID,
		"quantity":            d.quantity,
		"tie-high-confirm":    "Y",
		"blast":               "N",
		"lot":                 "BM" + d.runID,
		"customer-lot":        "CL1",
		"establishment":       "EST1",
		"slaughter-date":      now.AddDate(0, 0, -7).Format("01022006"),
		"reference":           "BENCH",
		"temperature":         "-18",
		"best-before":         now.AddDate(1, 0, 0).Format("01022006"),
		"consignee":           "BENCH",
		"rotation-override":   "Y",
		"catch-weight":        "20.5",
		"pallet-type":         "CHEP",
		"machine-id":          d.terminal,
		"merge":               "N",
		"putaway":             "",
		"commit":              "",
		"crossdock-info":      "",
		"crossdock-exception": "BENCH",
	}

	step := "product"
	for i := 0; i < maxKeystrokes; i++ {
		value, ok := answers[step]
		if !ok {
			return fmt.Errorf("pallet %s: no answer for screen %s", palletID, step)
		}
		s, err := d.client.Key(value, "")
		if err != nil {
			return fmt.Errorf("pallet %s at %s: %w", palletID, step, err)
		}
		if s.Error != "" && s.NextStep == step && step != "catch-weight" {
			return fmt.Errorf("pallet %s at %s: %s", palletID, step, s.Error)
		}
		if step == "commit" || (step != "product" && (s.NextStep == "product" || s.NextStep == "quick-note")) {
			if s.NextStep != "product" && s.NextStep != "quick-note" && s.NextStep != "loading" {
				return fmt.Errorf("pallet %s: commit went to %s (%s)", palletID, s.NextStep, s.Error)
			}
			return nil
		}
		step = s.NextStep
	}
	return fmt.Errorf("pallet %s: not committed after %d keystrokes", palletID, maxKeystrokes)
}
