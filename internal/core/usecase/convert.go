package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
	"github.com/matrixlabs/ai-converter/internal/core/ports"
)

// ConvertOptions bound a single conversion run.
type ConvertOptions struct {
	MaxInputSize   int64
	AdvisorTimeout time.Duration
	Analyzer       AnalyzerOptions
	SQLBatchSize   int
}

const (
	defaultMaxInputSize   = 10 << 20 // 10 MB, checked before the Dataset is built
	defaultAdvisorTimeout = 30 * time.Second
)

func (o ConvertOptions) normalize() ConvertOptions {
	if o.MaxInputSize <= 0 {
		o.MaxInputSize = defaultMaxInputSize
	}
	if o.AdvisorTimeout <= 0 {
		o.AdvisorTimeout = defaultAdvisorTimeout
	}
	return o
}

// ConvertUseCase orchestrates one conversion: decode, infer, decide the
// processing mode (consulting the advisor when warranted), merge, emit.
type ConvertUseCase struct {
	analyzer    *Analyzer
	advisor     ports.TypeAdvisor
	csvDecoder  ports.TabularDecoder
	xlsxDecoder ports.TabularDecoder
	jsonDecoder ports.TabularDecoder
	spreadsheet ports.SpreadsheetEncoder
	jsonEmit    *JSONEmitter
	sqlEmit     *SQLEmitter
	opts        ConvertOptions
}

func NewConvertUseCase(
	advisor ports.TypeAdvisor,
	csvDecoder ports.TabularDecoder,
	xlsxDecoder ports.TabularDecoder,
	jsonDecoder ports.TabularDecoder,
	spreadsheet ports.SpreadsheetEncoder,
	opts ConvertOptions,
) *ConvertUseCase {
	opts = opts.normalize()
	return &ConvertUseCase{
		analyzer:    NewAnalyzer(opts.Analyzer),
		advisor:     advisor,
		csvDecoder:  csvDecoder,
		xlsxDecoder: xlsxDecoder,
		jsonDecoder: jsonDecoder,
		spreadsheet: spreadsheet,
		jsonEmit:    NewJSONEmitter(),
		sqlEmit:     NewSQLEmitter(opts.SQLBatchSize),
		opts:        opts,
	}
}

func (uc *ConvertUseCase) ConvertToJSON(ctx context.Context, raw []byte, filename string, req domain.ConversionRequest) (*domain.ConversionResult, error) {
	started := time.Now()
	ev, err := uc.prepare(ctx, raw, filename, req)
	if err != nil {
		return nil, err
	}

	data, err := uc.jsonEmit.Emit(ev.dataset, ev.descriptors)
	if err != nil {
		return nil, err
	}

	result := uc.buildResult(ev, filename, int64(len(raw)), started)
	result.Data = data
	return result, nil
}

func (uc *ConvertUseCase) ConvertToSpreadsheet(ctx context.Context, jsonPayload []byte, req domain.ConversionRequest) (*domain.ConversionResult, error) {
	started := time.Now()
	name := req.OutputFilename
	if name == "" {
		name = "converted_data.xlsx"
	}

	ev, err := uc.prepare(ctx, jsonPayload, name, req)
	if err != nil {
		return nil, err
	}

	binary, err := uc.spreadsheet.Encode(ev.dataset.Columns, ev.dataset.Rows)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmission, "encode spreadsheet", err)
	}

	result := uc.buildResult(ev, name, int64(len(jsonPayload)), started)
	result.Binary = binary
	return result, nil
}

func (uc *ConvertUseCase) ConvertToSQL(ctx context.Context, raw []byte, filename string, req domain.ConversionRequest) (*domain.ConversionResult, error) {
	started := time.Now()
	ev, err := uc.prepare(ctx, raw, filename, req)
	if err != nil {
		return nil, err
	}

	table := req.TableName
	if table == "" {
		table = tableNameFromFilename(filename)
	}
	script, err := uc.sqlEmit.Emit(ev.dataset, ev.descriptors, table)
	if err != nil {
		return nil, err
	}

	result := uc.buildResult(ev, filename, int64(len(raw)), started)
	result.SQL = script
	return result, nil
}

// evaluation is the outcome of the EVALUATING..DONE walk for one request.
type evaluation struct {
	dataset     *domain.Dataset
	descriptors []domain.ColumnDescriptor
	mode        domain.ProcessingMode
	aiUsed      bool
	trigger     domain.TriggerReason
	confidence  float64
	issues      []domain.Issue
	patterns    []string
	recs        []string
	improvement []string
	technical   map[string]string
}

func (uc *ConvertUseCase) prepare(ctx context.Context, raw []byte, filename string, req domain.ConversionRequest) (*evaluation, error) {
	if int64(len(raw)) > uc.opts.MaxInputSize {
		return nil, domain.WrapError(domain.ErrValidation, "validate input",
			fmt.Errorf("input size %d exceeds limit %d", len(raw), uc.opts.MaxInputSize))
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "validate input", errors.New("empty input"))
	}

	ds, err := uc.decode(raw, req.SourceFormat)
	if err != nil {
		return nil, err
	}
	return uc.evaluate(ctx, ds, filename, req), nil
}

func (uc *ConvertUseCase) decode(raw []byte, format domain.SourceFormat) (*domain.Dataset, error) {
	var decoder ports.TabularDecoder
	switch format {
	case domain.SourceCSV:
		decoder = uc.csvDecoder
	case domain.SourceXLSX:
		decoder = uc.xlsxDecoder
	case domain.SourceJSON:
		decoder = uc.jsonDecoder
	default:
		return nil, domain.WrapError(domain.ErrValidation, "decode input",
			fmt.Errorf("unsupported source format %q", format))
	}
	ds, err := decoder.Decode(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrParse, "decode input", err)
	}
	return ds, nil
}

// evaluate runs the mode decision state machine. It never fails: advisor
// errors collapse into the fallback path.
func (uc *ConvertUseCase) evaluate(ctx context.Context, ds *domain.Dataset, filename string, req domain.ConversionRequest) *evaluation {
	baseline := uc.analyzer.Analyze(ds)
	baselineConfidence := AggregateConfidence(baseline)
	ambiguous := countAmbiguous(baseline)

	ev := &evaluation{
		dataset:     ds,
		descriptors: baseline,
		mode:        domain.ModeDeterministic,
		confidence:  baselineConfidence,
	}

	escalate := req.UseAI && (req.ForceAI || baselineConfidence < req.ConfidenceThreshold)
	if escalate {
		uc.escalate(ctx, ev, filename, req, baselineConfidence, ambiguous)
	}

	ev.issues = DetectIssues(ev.descriptors)
	ev.patterns = detectPatterns(ev.dataset, ev.descriptors)
	ev.recs = domain.IssueRecommendations(ev.issues)
	return ev
}

func (uc *ConvertUseCase) escalate(ctx context.Context, ev *evaluation, filename string, req domain.ConversionRequest, baselineConfidence float64, ambiguous int) {
	switch {
	case ambiguous > 0:
		ev.trigger = domain.TriggerAmbiguousColumns
	case baselineConfidence < req.ConfidenceThreshold:
		ev.trigger = domain.TriggerLowConfidence
	default:
		ev.trigger = domain.TriggerUserRequested
	}

	advCtx, cancel := context.WithTimeout(ctx, uc.opts.AdvisorTimeout)
	defer cancel()

	advice, err := uc.advisor.Suggest(advCtx, buildAdviceRequest(ev.dataset, ev.descriptors, filename))
	if err != nil {
		uc.applyFallback(ev)
		ev.trigger = domain.TriggerAIUnavailable
		ev.technical = map[string]string{"advisor_error": err.Error()}
		return
	}

	uc.merge(ev, advice, req, ambiguous)
}

// merge adopts advisor suggestions per column where the advisor is more
// confident than the deterministic match ratio, then classifies the outcome
// into ai_powered, hybrid, or (when nothing was adopted) the fallback path.
func (uc *ConvertUseCase) merge(ev *evaluation, advice domain.Advice, req domain.ConversionRequest, ambiguous int) {
	suggestions := make(map[string]domain.ColumnSuggestion, len(advice.PerColumn))
	for _, s := range advice.PerColumn {
		suggestions[s.Name] = s
	}

	adopted := 0
	ambiguousAdopted := 0
	merged := make([]domain.ColumnDescriptor, len(ev.descriptors))
	copy(merged, ev.descriptors)

	for i := range merged {
		s, ok := suggestions[merged[i].Name]
		if !ok || s.SuggestedType == "" {
			continue
		}
		if s.Confidence/100 > merged[i].MatchRatio {
			if merged[i].Ambiguous {
				ambiguousAdopted++
			}
			merged[i].Type = s.SuggestedType
			merged[i].MatchRatio = clampConfidence(s.Confidence) / 100
			merged[i].Ambiguous = false
			adopted++
		}
	}

	switch {
	case adopted > 0 && ambiguousAdopted == ambiguous && advice.AggregateConfidence >= req.ConfidenceThreshold:
		ev.descriptors = merged
		ev.mode = domain.ModeAIPowered
		ev.aiUsed = true
		ev.confidence = clampConfidence(advice.AggregateConfidence)
	case adopted > 0:
		ev.descriptors = merged
		ev.mode = domain.ModeHybrid
		ev.aiUsed = true
		ev.confidence = AggregateConfidence(merged)
	default:
		// The advisor answered but nothing beat the deterministic verdict;
		// AI did not shape the output, so this is a repair pass, not an AI
		// result.
		uc.applyFallback(ev)
		ev.technical = map[string]string{"advisor_outcome": "suggestions_not_adopted"}
		return
	}

	ev.improvement = advice.Improvements
	ev.recs = append(ev.recs, advice.Recommendations...)
	if len(ev.technical) == 0 {
		ev.technical = map[string]string{
			"advisor_columns": strconv.Itoa(len(advice.PerColumn)),
			"adopted_columns": strconv.Itoa(adopted),
		}
	}
}

// applyFallback runs the safe heuristic repairs: ambiguous columns widen to
// text, fully empty columns are dropped from the output.
func (uc *ConvertUseCase) applyFallback(ev *evaluation) {
	ev.mode = domain.ModeFallback
	ev.aiUsed = false

	keep := make([]int, 0, len(ev.descriptors))
	repaired := make([]domain.ColumnDescriptor, 0, len(ev.descriptors))
	for i, d := range ev.descriptors {
		if d.MissingRatio >= 1 {
			continue
		}
		if d.Ambiguous {
			d.Type = domain.TypeText
			d.MatchRatio = 1 // text accepts every value
			d.Ambiguous = false
		}
		keep = append(keep, i)
		repaired = append(repaired, d)
	}

	ev.dataset = projectColumns(ev.dataset, keep)
	ev.descriptors = repaired
	ev.confidence = AggregateConfidence(repaired)
}

func (uc *ConvertUseCase) buildResult(ev *evaluation, filename string, size int64, started time.Time) *domain.ConversionResult {
	columnTypes := make(map[string]domain.ColumnType, len(ev.descriptors))
	for _, d := range ev.descriptors {
		columnTypes[d.Name] = d.Type
	}

	issueCodes := domain.IssueCodes(ev.issues)
	return &domain.ConversionResult{
		Status: "success",
		Metadata: domain.ConversionMetadata{
			RecordCount:      ev.dataset.RowCount(),
			Confidence:       clampConfidence(ev.confidence),
			ProcessingTimeMs: time.Since(started).Milliseconds(),
			FileInfo:         domain.FileInfo{Name: filename, Size: size},
			ColumnTypes:      columnTypes,
			AIAnalysis: domain.AIAnalysis{
				DetectedPatterns: ev.patterns,
				Recommendations:  ev.recs,
			},
			AIUsage: domain.AIUsage{
				AIUsed:           ev.aiUsed,
				ProcessingMode:   ev.mode,
				TriggerReason:    ev.trigger,
				IssuesDetected:   issueCodes,
				AIImprovements:   ev.improvement,
				TechnicalDetails: ev.technical,
			},
		},
	}
}

func buildAdviceRequest(ds *domain.Dataset, descriptors []domain.ColumnDescriptor, filename string) domain.AdviceRequest {
	const samplesPerColumn = 10

	req := domain.AdviceRequest{Filename: filename, Columns: make([]domain.AdviceColumn, 0, len(descriptors))}
	for col, d := range descriptors {
		samples := make([]string, 0, samplesPerColumn)
		for row := 0; row < ds.RowCount() && len(samples) < samplesPerColumn; row++ {
			v := ds.Cell(row, col)
			if v.IsNull() {
				continue
			}
			samples = append(samples, v.String())
		}
		req.Columns = append(req.Columns, domain.AdviceColumn{
			Name:         d.Name,
			Samples:      samples,
			DetectedType: d.Type,
			MatchRatio:   d.MatchRatio,
		})
	}
	return req
}

func countAmbiguous(descriptors []domain.ColumnDescriptor) int {
	n := 0
	for _, d := range descriptors {
		if d.Ambiguous {
			n++
		}
	}
	return n
}

func projectColumns(ds *domain.Dataset, keep []int) *domain.Dataset {
	if len(keep) == len(ds.Columns) {
		return ds
	}
	out := &domain.Dataset{
		Columns: make([]string, 0, len(keep)),
		Rows:    make([][]domain.Value, len(ds.Rows)),
	}
	for _, idx := range keep {
		out.Columns = append(out.Columns, ds.Columns[idx])
	}
	for r := range ds.Rows {
		row := make([]domain.Value, 0, len(keep))
		for _, idx := range keep {
			row = append(row, ds.Cell(r, idx))
		}
		out.Rows[r] = row
	}
	return out
}

func tableNameFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if ident := sanitizeIdentifier(base); ident != "" {
		return ident
	}
	return "converted_data"
}
