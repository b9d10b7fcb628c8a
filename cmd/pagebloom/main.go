// pagebloom is the operational front end for filter files. It consumes
// exactly the library's public operations: create a filter file, insert
// newline-delimited items from stdin, query membership, and report stats.
//
// Usage:
//
//	pagebloom -file urls.bloom -create -capacity 1000000 -p 0.001
//	cat urls.txt | pagebloom -file urls.bloom -insert
//	pagebloom -file urls.bloom -contains "https://example.com/"
//	pagebloom -file urls.bloom -stats
//
// Inserts use the capacity-checked path: once the filter reports full, the
// run stops with an error rather than silently degrading the advertised
// false-positive rate. The membership query exits 0 for "maybe present" and
// 1 for "definitely absent", so it composes in shell pipelines.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"pagebloom.lopezb.com/internal/pagebloom/bloom"
)

type config struct {
	file     string
	create   bool
	capacity uint64
	p        float64
	insert   bool
	contains string
	stats    bool
}

func main() {
	var cfg config

	flag.StringVar(&cfg.file, "file", "filter.bloom", "Path to the filter file")
	flag.BoolVar(&cfg.create, "create", false, "Create a new filter file")
	flag.Uint64Var(&cfg.capacity, "capacity", 1000, "Target capacity for -create")
	flag.Float64Var(&cfg.p, "p", 0.01, "False-positive rate for -create (a probability, or a '1 in N' ratio)")
	flag.BoolVar(&cfg.insert, "insert", false, "Insert newline-delimited items from stdin")
	flag.StringVar(&cfg.contains, "contains", "", "Query membership of a single item")
	flag.BoolVar(&cfg.stats, "stats", false, "Print filter statistics")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var err error
	switch {
	case cfg.create:
		err = runCreate(cfg, logger)
	case cfg.insert:
		err = runInsert(cfg, logger)
	case cfg.contains != "":
		err = runContains(cfg)
	case cfg.stats:
		err = runStats(cfg)
	default:
		fmt.Fprintln(os.Stderr, "nothing to do: pass one of -create, -insert, -contains, -stats")
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("operation failed", "file", cfg.file, "error", err)
		os.Exit(1)
	}
}

func runCreate(cfg config, logger *slog.Logger) error {
	if cfg.capacity > uint64(^uint32(0)) {
		return fmt.Errorf("capacity %d out of range", cfg.capacity)
	}

	bf, err := bloom.NewFilter(uint32(cfg.capacity), cfg.p)
	if err != nil {
		return err
	}
	if err := bf.Save(cfg.file); err != nil {
		return err
	}

	prm := bf.Params()
	logger.Info("filter created",
		"file", cfg.file,
		"capacity", prm.N,
		"bits", prm.M,
		"hashes", prm.K,
		"p", prm.P,
		"pages", bf.Pages())
	return nil
}

func runInsert(cfg config, logger *slog.Logger) error {
	bf, err := bloom.Load(cfg.file)
	if err != nil {
		return err
	}

	var inserted, seen uint64
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		added, ok := bf.CheckedInsert(scanner.Bytes())
		if !ok {
			return fmt.Errorf("filter is at capacity (%d items)", bf.Params().N)
		}
		if added {
			inserted++
		} else {
			seen++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	if err := bf.Save(cfg.file); err != nil {
		return err
	}

	logger.Info("insert complete",
		"file", cfg.file,
		"inserted", inserted,
		"already_present", seen,
		"count", bf.Count())
	return nil
}

func runContains(cfg config) error {
	bf, err := bloom.Load(cfg.file)
	if err != nil {
		return err
	}

	if !bf.Contains([]byte(cfg.contains)) {
		fmt.Println("definitely absent")
		os.Exit(1)
	}
	fmt.Println("maybe present")
	return nil
}

func runStats(cfg config) error {
	bf, err := bloom.Load(cfg.file)
	if err != nil {
		return err
	}

	prm := bf.Params()
	fmt.Printf("capacity:       %d\n", prm.N)
	fmt.Printf("bits:           %d (%d pages)\n", prm.M, bf.Pages())
	fmt.Printf("hashes:         %d\n", prm.K)
	fmt.Printf("p at capacity:  %.6g\n", prm.P)
	fmt.Printf("count estimate: %d\n", bf.CountEstimate())
	fmt.Printf("fingerprint:    %016x\n", bf.Fingerprint())
	return nil
}
