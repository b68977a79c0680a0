// pdf_list_fields prints the fillable field names of a PDF form template in
// order of appearance, as text or JSON. Useful when authoring a template to
// confirm its field names line up with the REDCap project's variables.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/redcap-tools/redcap-pdf-fill/internal/pdfform"
)

var (
	outputFormat = flag.String("format", "text", "Output format: text, json")
	help         = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: PDF file path required\n\n")
		printUsage()
		os.Exit(1)
	}

	pdfPath := flag.Arg(0)
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", pdfPath)
		os.Exit(1)
	}

	doc, err := pdfform.Open(pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PDF: %v\n", err)
		os.Exit(1)
	}

	fields, err := doc.Fields()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering fields: %v\n", err)
		os.Exit(1)
	}

	if err := outputResults(pdfPath, fields); err != nil {
		fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
		os.Exit(1)
	}
}

func outputResults(pdfPath string, fields []string) error {
	switch *outputFormat {
	case "json":
		payload := struct {
			Path   string   `json:"path"`
			Count  int      `json:"count"`
			Fields []string `json:"fields"`
		}{Path: pdfPath, Count: len(fields), Fields: fields}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case "text":
		fmt.Printf("Template: %s\n", pdfPath)
		fmt.Printf("Fillable fields (%d, in order of appearance):\n", len(fields))
		for i, field := range fields {
			fmt.Printf("  %d. %s\n", i+1, field)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", *outputFormat)
	}
}

func printHelp() {
	fmt.Println("PDF List Fields - print the fillable field names of a PDF form template")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("Field names are logical names: widgets that share a parent field are")
	fmt.Println("reported once, and checkbox sub-option names like 'cb_1___3' are")
	fmt.Println("truncated to their group name 'cb_1'.")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Printf("  %s [options] <pdf-file>\n", os.Args[0])
}
