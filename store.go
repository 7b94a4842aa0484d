package ownership

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Output table columns.
const (
	ColumnRoot        = "Entidad"
	ColumnBeneficiary = "Accionista"
	ColumnPercent     = "Participacion"

	// OutputSheet is the sheet name of xlsx output tables.
	OutputSheet = "Beneficiarios"
	// EdgesSheet is the sheet name of xlsx edge tables.
	EdgesSheet = "Participaciones"
)

// Format is a tabular file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
	FormatJSONL Format = "jsonl"
)

// FormatOf returns the format of a file from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".jsonl":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%q: %w", path, ErrUnknownFormat)
}

// OutputPath returns the default output path for 'input': the same directory
// and stem with a "_beneficiarios" suffix. 'ext' overrides the extension.
func OutputPath(input, ext string) string {
	if ext == "" {
		ext = filepath.Ext(input)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), stem+"_beneficiarios"+ext)
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", path, err)
	}
	return f, nil
}

// ReadRows reads the rows of a source table. Columns A, B and C are the
// entity name, the direct participation and the cached final participation.
// Fully empty rows are dropped but row indexes follow the source table.
func ReadRows(path string) ([]Row, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	table, err := readTable(path, format, "")
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(table))
	for i, record := range table {
		row := Row{Index: i + 1}
		for j, dst := range []*string{&row.Name, &row.Direct, &row.Final} {
			if j < len(record) {
				*dst = strings.TrimSpace(record[j])
			}
		}
		if row.Name == "" && row.Direct == "" && row.Final == "" {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%q: %w", path, ErrEmptyInput)
	}
	logger.Debug("read source table", "path", path, "format", format, "rows", len(rows))
	return rows, nil
}

// readTable returns the cells of a csv table or of an xlsx sheet.
func readTable(path string, format Format, sheet string) ([][]string, error) {
	var (
		table [][]string
		err   error
	)
	switch format {
	case FormatCSV:
		f, oerr := openInput(path)
		if oerr != nil {
			return nil, oerr
		}
		defer f.Close()
		table, err = readCSV(f)
	case FormatXLSX:
		if _, serr := os.Stat(path); errors.Is(serr, os.ErrNotExist) {
			return nil, &InputNotFoundError{Path: path, Err: serr}
		}
		table, err = readXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("%q is not a table: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", path, err)
	}
	return table, nil
}

// detectDelimiter picks the most frequent of ';', ',' and tab on the first
// non-empty line. Comma wins ties.
func detectDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		commas := strings.Count(line, ",")
		semicolons := strings.Count(line, ";")
		tabs := strings.Count(line, "\t")
		switch {
		case tabs > commas && tabs > semicolons:
			return '\t'
		case semicolons > commas:
			return ';'
		}
		return ','
	}
	return ','
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// spreadsheet exports often start with a byte order mark.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// readXLSX returns the raw cell values of 'sheet', the first sheet if empty.
func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if idx, err := f.GetSheetIndex(sheet); sheet == "" || err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyInput
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

// WriteRecords writes beneficiary records to a csv, xlsx or jsonl table with
// the columns Entidad, Accionista and Participacion (2 decimals).
func WriteRecords(path string, records []BeneficiaryRecord) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatXLSX:
		err = writeXLSX(path, records)
	case FormatCSV, FormatJSONL:
		var buf bytes.Buffer
		if format == FormatCSV {
			err = EncodeRecordsCSV(&buf, records)
		} else {
			err = EncodeRecordsJSONL(&buf, records)
		}
		if err == nil {
			err = os.WriteFile(path, buf.Bytes(), 0644)
		}
	}
	if err != nil {
		return fmt.Errorf("could not write %q: %w", path, err)
	}
	logger.Info("beneficiaries written", "path", path, "records", len(records))
	return nil
}

// EncodeRecordsCSV writes records as comma separated values with a header.
func EncodeRecordsCSV(w io.Writer, records []BeneficiaryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnRoot, ColumnBeneficiary, ColumnPercent}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Root, r.Beneficiary, r.Percent.Fixed()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeRecordsJSONL writes one JSON object per record.
func EncodeRecordsJSONL(w io.Writer, records []BeneficiaryRecord) error {
	for _, r := range records {
		line, err := r.MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeXLSX(path string, records []BeneficiaryRecord) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", OutputSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(OutputSheet, "A1", &[]any{ColumnRoot, ColumnBeneficiary, ColumnPercent}); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(OutputSheet, cell, &[]any{r.Root, r.Beneficiary, r.Percent.Round(2).Float64()}); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// ReadRecords reads back a table written by WriteRecords.
func ReadRecords(path string) ([]BeneficiaryRecord, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatJSONL {
		f, err := openInput(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return DecodeRecordsJSONL(f)
	}

	table, err := readTable(path, format, OutputSheet)
	if err != nil {
		return nil, err
	}
	return recordsFromTable(table)
}

func recordsFromTable(table [][]string) ([]BeneficiaryRecord, error) {
	var res []BeneficiaryRecord
	for i, line := range table {
		if i == 0 || len(line) == 0 {
			continue // header
		}
		if len(line) < 3 {
			return nil, fmt.Errorf("line %d: want 3 columns, got %d", i+1, len(line))
		}
		p, err := decimal.NewFromString(strings.TrimSpace(line[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s %q: %w", i+1, ColumnPercent, line[2], err)
		}
		res = append(res, BeneficiaryRecord{
			Root:        line[0],
			Beneficiary: line[1],
			Key:         Fold(line[1]),
			Percent:     P(p).Round(2),
		})
	}
	return res, nil
}

// DecodeRecordsJSONL reads records written by EncodeRecordsJSONL.
func DecodeRecordsJSONL(r io.Reader) ([]BeneficiaryRecord, error) {
	var res []BeneficiaryRecord
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		b := scanner.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		var jr struct {
			Root        string          `json:"Entidad"`
			Beneficiary string          `json:"Accionista"`
			Percent     decimal.Decimal `json:"Participacion"`
			Paths       []string        `json:"paths"`
		}
		if err := json.Unmarshal(b, &jr); err != nil {
			return nil, fmt.Errorf("format error on line %d: %w", line, err)
		}
		res = append(res, BeneficiaryRecord{
			Root:        jr.Root,
			Beneficiary: jr.Beneficiary,
			Key:         Fold(jr.Beneficiary),
			Percent:     P(jr.Percent).Round(2),
			Paths:       jr.Paths,
		})
	}
	return res, scanner.Err()
}

// WriteEdges writes ownership links to a flat csv, xlsx or jsonl table with
// the columns Entidad (the owned entity), Accionista (the shareholder) and
// Participacion (the direct share as a fraction, full precision).
func WriteEdges(path string, edges []OwnershipEdge) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatXLSX:
		err = writeEdgesXLSX(path, edges)
	case FormatCSV, FormatJSONL:
		var buf bytes.Buffer
		if format == FormatCSV {
			err = EncodeEdgesCSV(&buf, edges)
		} else {
			err = EncodeEdgesJSONL(&buf, edges)
		}
		if err == nil {
			err = os.WriteFile(path, buf.Bytes(), 0644)
		}
	}
	if err != nil {
		return fmt.Errorf("could not write %q: %w", path, err)
	}
	logger.Info("ownership links written", "path", path, "edges", len(edges))
	return nil
}

func edgeNames(e OwnershipEdge) (parent, child string) {
	parent, child = e.ParentDisplay, e.ChildDisplay
	if parent == "" {
		parent = e.Parent
	}
	if child == "" {
		child = e.Child
	}
	return parent, child
}

// EncodeEdgesCSV writes ownership links as comma separated values with a header.
func EncodeEdgesCSV(w io.Writer, edges []OwnershipEdge) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnRoot, ColumnBeneficiary, ColumnPercent}); err != nil {
		return err
	}
	for _, e := range edges {
		parent, child := edgeNames(e)
		if err := cw.Write([]string{parent, child, e.Share.Decimal().String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeEdgesJSONL writes one JSON object per ownership link.
func EncodeEdgesJSONL(w io.Writer, edges []OwnershipEdge) error {
	for _, e := range edges {
		parent, child := edgeNames(e)
		var jw jsonObjectWriter
		jw.Append(ColumnRoot, parent).
			Append(ColumnBeneficiary, child).
			Append(ColumnPercent, json.Number(e.Share.Decimal().String())).
			Optional("row", e.Row)
		line, err := jw.MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeEdgesXLSX(path string, edges []OwnershipEdge) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", EdgesSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(EdgesSheet, "A1", &[]any{ColumnRoot, ColumnBeneficiary, ColumnPercent}); err != nil {
		return err
	}
	for i, e := range edges {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		parent, child := edgeNames(e)
		if err := f.SetSheetRow(EdgesSheet, cell, &[]any{parent, child, e.Share.Decimal().InexactFloat64()}); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// ReadEdges builds the ownership graph from a flat table of links, one link
// per line: owned entity, shareholder and direct participation, read with
// the scale of 'opts'. A first line whose participation is not a number is
// a header. Lines the graph cannot hold become diagnostics; under the Strict
// policy the first malformed line aborts the read.
func ReadEdges(path string, opts ParserOptions) (*ParseResult, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	var table [][]string
	if format == FormatJSONL {
		f, err := openInput(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		table, err = decodeEdgesJSONL(f)
		if err != nil {
			return nil, fmt.Errorf("could not read %q: %w", path, err)
		}
	} else if table, err = readTable(path, format, EdgesSheet); err != nil {
		return nil, err
	}
	if opts.Scale == "" {
		opts.Scale = ScaleAuto
	}
	canon := opts.Canonicalizer

	res := &ParseResult{Graph: NewGraph()}
	for i, line := range table {
		index := i + 1
		parent, child, raw := column(line, 0), column(line, 1), column(line, 2)
		if parent == "" && child == "" && raw == "" {
			continue
		}
		c, cerr := parseCell(raw)
		if i == 0 && cerr != nil {
			continue // header
		}
		res.Rows++

		var lerr error
		var share Share
		switch {
		case parent == "" || child == "":
			lerr = &MalformedHierarchyError{Row: index, Name: parent + child, Reason: "link without an entity or a shareholder"}
		case cerr != nil:
			lerr = &UnparseableParticipationError{Row: index, Cell: raw}
		default:
			share, _ = c.share(opts.Scale)
			switch {
			case !share.IsPositive() || share.GreaterThan(S(1)):
				lerr = &MalformedHierarchyError{Row: index, Name: child, Reason: fmt.Sprintf("participation %s out of range", share)}
			case canon.Canonical(parent) == canon.Canonical(child):
				lerr = &MalformedHierarchyError{Row: index, Name: child, Reason: "entity listed as its own shareholder"}
			}
		}
		if lerr != nil {
			if opts.Policy == Strict && errors.Is(lerr, ErrMalformedHierarchy) {
				return nil, lerr
			}
			logger.Warn("link skipped", "row", index, "err", lerr)
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Row: index, Name: child, Err: lerr})
			continue
		}
		res.Graph.Add(OwnershipEdge{
			Parent:        canon.Canonical(parent),
			Child:         canon.Canonical(child),
			Share:         share,
			Row:           index,
			ParentDisplay: parent,
			ChildDisplay:  child,
		})
	}
	if res.Rows == 0 {
		return nil, fmt.Errorf("%q: %w", path, ErrEmptyInput)
	}
	logger.Info("read ownership links", "path", path, "rows", res.Rows, "edges", res.Graph.Len(), "skipped", len(res.Diagnostics))
	return res, nil
}

// column returns the trimmed cell 'j' of a table line, "" when missing.
func column(line []string, j int) string {
	if j < len(line) {
		return strings.TrimSpace(line[j])
	}
	return ""
}

// decodeEdgesJSONL turns the objects written by EncodeEdgesJSONL into table
// lines. Numbers are kept as written.
func decodeEdgesJSONL(r io.Reader) ([][]string, error) {
	var table [][]string
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		b := scanner.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			table = append(table, nil)
			continue
		}
		var jl struct {
			Parent string      `json:"Entidad"`
			Child  string      `json:"Accionista"`
			Share  json.Number `json:"Participacion"`
		}
		if err := json.Unmarshal(b, &jl); err != nil {
			return nil, fmt.Errorf("format error on line %d: %w", line, err)
		}
		table = append(table, []string{jl.Parent, jl.Child, jl.Share.String()})
	}
	return table, scanner.Err()
}
