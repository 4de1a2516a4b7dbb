package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/example/wordvault/pkg/models"
)

// wordStore is the slice of the repository the importer needs.
type wordStore interface {
	Search(ctx context.Context, term string) ([]models.WordEntry, error)
	Put(ctx context.Context, word *models.WordEntry) error
}

// ImportConfig defines the import configuration.
type ImportConfig struct {
	FilePath           string // Path to the Excel or CSV file
	WordColumn         string // Column with the word text
	DefinitionColumn   string // Column with the definition
	PartOfSpeechColumn string // Column with the part of speech
	ContextColumn      string // Column with an example sentence
	LanguageColumn     string // Column with the language code
	SheetName          string // Name of the sheet to import
	StartRow           int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:         "A",
		DefinitionColumn:   "B",
		PartOfSpeechColumn: "C",
		ContextColumn:      "D",
		LanguageColumn:     "E",
		SheetName:          "Sheet1",
		StartRow:           2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation.
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Errors         []string
}

// Importer loads vault entries from spreadsheet files. New entries
// start in learning status with a fresh review record; re-imported
// entries keep their review state and only refresh the content fields.
type Importer struct {
	store wordStore
	now   func() time.Time
}

// NewImporter creates an importer backed by the given store.
func NewImporter(store wordStore) *Importer {
	return &Importer{store: store, now: time.Now}
}

// ImportWords imports words from an Excel or CSV file.
func (im *Importer) ImportWords(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return im.importFromCSV(ctx, config)
	}
	return im.importFromExcel(ctx, config)
}

func (im *Importer) importFromExcel(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++
		if err := im.processRow(ctx, rowFields(row, config), result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

func (im *Importer) importFromCSV(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}

		// CSV columns are positional: word, definition, part of
		// speech, context, language.
		fields := importedWord{}
		if len(row) > 0 {
			fields.text = cleanWord(row[0])
		}
		if len(row) > 1 {
			fields.definition = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			fields.partOfSpeech = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			fields.context = strings.TrimSpace(row[3])
		}
		if len(row) > 4 {
			fields.language = strings.TrimSpace(row[4])
		}

		result.TotalProcessed++
		if err := im.processRow(ctx, fields, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return result, nil
}

// importedWord is one parsed row, whatever the source format.
type importedWord struct {
	text         string
	definition   string
	partOfSpeech string
	context      string
	language     string
}

func rowFields(row []string, config ImportConfig) importedWord {
	fields := importedWord{}
	if idx := columnToIndex(config.WordColumn); idx >= 0 && idx < len(row) {
		fields.text = cleanWord(row[idx])
	}
	if idx := columnToIndex(config.DefinitionColumn); idx >= 0 && idx < len(row) {
		fields.definition = strings.TrimSpace(row[idx])
	}
	if idx := columnToIndex(config.PartOfSpeechColumn); idx >= 0 && idx < len(row) {
		fields.partOfSpeech = strings.TrimSpace(row[idx])
	}
	if idx := columnToIndex(config.ContextColumn); idx >= 0 && idx < len(row) {
		fields.context = strings.TrimSpace(row[idx])
	}
	if idx := columnToIndex(config.LanguageColumn); idx >= 0 && idx < len(row) {
		fields.language = strings.TrimSpace(row[idx])
	}
	return fields
}

func (im *Importer) processRow(ctx context.Context, fields importedWord, result *ImportResult) error {
	if fields.text == "" {
		return fmt.Errorf("word cannot be empty")
	}
	if fields.language == "" {
		fields.language = "en"
	}

	existing, err := im.store.Search(ctx, fields.text)
	if err != nil {
		return fmt.Errorf("failed to search for existing words: %v", err)
	}
	for i := range existing {
		if strings.EqualFold(existing[i].Text, fields.text) {
			// Refresh content only; review history survives re-import.
			word := existing[i]
			word.Definition = fields.definition
			word.PartOfSpeech = fields.partOfSpeech
			word.Context = fields.context
			if err := im.store.Put(ctx, &word); err != nil {
				return fmt.Errorf("failed to update word: %v", err)
			}
			result.Updated++
			return nil
		}
	}

	now := im.now()
	word := &models.WordEntry{
		ID:           uuid.NewString(),
		Text:         fields.text,
		Language:     fields.language,
		Definition:   fields.definition,
		PartOfSpeech: fields.partOfSpeech,
		Context:      fields.context,
		Status:       models.StatusLearning,
		AddedAt:      now.UnixMilli(),
		Review:       models.NewReviewRecord(now),
	}
	if err := im.store.Put(ctx, word); err != nil {
		return fmt.Errorf("failed to create word: %v", err)
	}
	result.Created++
	return nil
}

// cleanWord strips extra information in parentheses, e.g. "go (went, gone)".
func cleanWord(word string) string {
	if idx := strings.Index(word, "("); idx > 0 {
		return strings.TrimSpace(word[:idx])
	}
	return strings.TrimSpace(word)
}

// columnToIndex converts an Excel column letter to a zero-based index.
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return -1
	}
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
