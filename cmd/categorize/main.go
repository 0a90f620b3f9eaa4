// Command categorize runs the extraction chain on a local receipt without
// touching storage. Handy for trying prompts and the offline fallback.
//
// Usage:
//
//	categorize -file receipt.pdf
//	categorize -file receipt.txt -offline
//	categorize -describe "uber to office" -type expense
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfalabs/finance-assistant/internal/domain"
	"github.com/pfalabs/finance-assistant/internal/extract"
	"github.com/pfalabs/finance-assistant/internal/logger"
	"github.com/pfalabs/finance-assistant/internal/pdftext"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		file      = flag.String("file", "", "Receipt file to extract, .pdf or plain text")
		describe  = flag.String("describe", "", "Categorize a single description instead of a file")
		typeHint  = flag.String("type", "expense", "Type hint for -describe: income or expense")
		offline   = flag.Bool("offline", false, "Skip the model and use the line extractor only")
		aiModel   = flag.String("ai-model", os.Getenv("GEMINI_MODEL"), "Gemini model name (or set GEMINI_MODEL env)")
		aiTimeout = flag.Duration("ai-timeout", extract.DefaultModelTimeout, "Timeout per model call")
	)
	flag.Parse()

	if *file == "" && *describe == "" {
		return fmt.Errorf("one of -file or -describe is required")
	}

	log := logger.New()
	ctx := context.Background()

	var model extract.TextModel
	if !*offline && os.Getenv("GEMINI_API_KEY") != "" {
		model = extract.NewGeminiModel(*aiModel, *aiTimeout)
	}
	extractor := extract.NewExtractor(model, log)

	if *describe != "" {
		result, err := extractor.CategorizeDescription(ctx, *describe, domain.Type(*typeHint))
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("reading %q: %w", *file, err)
	}

	text := string(data)
	if strings.EqualFold(filepath.Ext(*file), ".pdf") {
		text, err = pdftext.FromBytes(data)
		if err != nil {
			return fmt.Errorf("extracting text from %q: %w", *file, err)
		}
	}

	return printJSON(extractor.ExtractReceipt(ctx, text))
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
