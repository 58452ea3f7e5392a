package billform

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"

	"github.com/codalotl/streamfill/internal/diag"
)

// OCRLine is one recognized line of text from a screenshot.
type OCRLine struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// EncodeOCR renders lines as the user message of a bill request: a JSON array of {label, confidence} objects.
func EncodeOCR(lines []OCRLine) (string, error) {
	if lines == nil {
		lines = []OCRLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", diag.Wrap("billform: encode ocr", err)
	}
	return string(b), nil
}

// ParseOCR reads OCR output in either of two forms: a JSON array of {label, confidence} objects, or plain text with one label per line (confidence 1). Blank lines are
// skipped in the plain form.
func ParseOCR(data []byte) ([]OCRLine, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var lines []OCRLine
		if err := json.Unmarshal(trimmed, &lines); err != nil {
			return nil, diag.Wrap("billform: parse ocr json", err)
		}
		return lines, nil
	}

	var lines []OCRLine
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		label := strings.TrimSpace(sc.Text())
		if label == "" {
			continue
		}
		lines = append(lines, OCRLine{Label: label, Confidence: 1})
	}
	if err := sc.Err(); err != nil {
		return nil, diag.Wrap("billform: parse ocr text", err)
	}
	return lines, nil
}
