// Command extract runs OCR and structured extraction against one local file
// and prints the parsed result. No database is involved.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"paperledger/internal/config"
	"paperledger/internal/llm"
	_ "paperledger/internal/llm/ollama"
	_ "paperledger/internal/llm/openai"
	"paperledger/internal/logger"
	"paperledger/internal/ocr"
	"paperledger/internal/parser"
)

type output struct {
	File          string   `json:"file"`
	OCRConfidence float64  `json:"ocr_confidence"`
	Pages         int      `json:"pages"`
	OCRText       string   `json:"ocr_text,omitempty"`
	Success       bool     `json:"success"`
	Error         string   `json:"error,omitempty"`
	DocKind       *string  `json:"doc_type,omitempty"`
	Date          *string  `json:"date,omitempty"`
	Time          *string  `json:"time,omitempty"`
	Merchant      *string  `json:"merchant,omitempty"`
	Location      *string  `json:"location,omitempty"`
	TotalAmount   *string  `json:"total_amount,omitempty"`
	Currency      string   `json:"currency"`
	IsIncome      bool     `json:"is_income"`
	Items         []item   `json:"items"`
	SuggestedTags []string `json:"suggested_tags"`
	Warnings      []string `json:"warnings,omitempty"`
	RawResponse   string   `json:"raw_response,omitempty"`
}

type item struct {
	Name       string  `json:"name"`
	Quantity   string  `json:"quantity"`
	UnitPrice  *string `json:"unit_price,omitempty"`
	TotalPrice *string `json:"total_price,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	file := flag.String("file", "", "path of the image or PDF to extract")
	tags := flag.String("tags", "", "comma-separated tag vocabulary offered to the model")
	showText := flag.Bool("text", false, "include the OCR text in the output")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall time limit")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		return errors.New("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	var backend ocr.Backend
	if cfg.OCR.Backend == "tesseract" {
		backend = ocr.NewTesseractBackend(cfg.OCR.Language)
	} else {
		backend = ocr.NewRemoteBackend(cfg.OCR.URL, cfg.OCR.Timeout())
	}
	extractor := ocr.NewExtractor(backend,
		ocr.WithRasterizer(ocr.NewFitzRasterizer(cfg.OCR.PDFDPI)),
		ocr.WithLogger(zl.Named("ocr")))

	structured, err := llm.New(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ocrResult, err := extractor.Extract(ctx, *file)
	if err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	zl.Info("ocr complete",
		zap.Int("pages", ocrResult.Pages),
		zap.Float64("confidence", ocrResult.Confidence))

	raw, err := structured.Extract(ctx, ocrResult.Text, splitTags(*tags))
	if err != nil {
		return fmt.Errorf("ai: %w", err)
	}

	result := parser.Parse(raw)
	out := output{
		File:          *file,
		OCRConfidence: ocrResult.Confidence,
		Pages:         ocrResult.Pages,
		Success:       result.Success,
		Error:         result.Error,
		DocKind:       result.DocKind,
		Date:          result.Date,
		Time:          result.Time,
		Merchant:      result.Merchant,
		Location:      result.Location,
		Currency:      result.CurrencyOrDefault(),
		IsIncome:      result.IsIncomeOrDefault(),
		Items:         make([]item, 0, len(result.Items)),
		SuggestedTags: result.SuggestedTags,
		Warnings:      result.Warnings,
	}
	if *showText {
		out.OCRText = ocrResult.Text
	}
	if !result.Success {
		out.RawResponse = result.RawResponse
	}
	if result.TotalAmount != nil {
		s := result.TotalAmount.String()
		out.TotalAmount = &s
	}
	for _, it := range result.Items {
		o := item{Name: it.Name, Quantity: it.Quantity.String()}
		if it.UnitPrice != nil {
			s := it.UnitPrice.String()
			o.UnitPrice = &s
		}
		if it.TotalPrice != nil {
			s := it.TotalPrice.String()
			o.TotalPrice = &s
		}
		out.Items = append(out.Items, o)
	}
	if out.SuggestedTags == nil {
		out.SuggestedTags = []string{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("extraction failed: %s", result.Error)
	}
	return nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
