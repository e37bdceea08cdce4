package domain

// SourceFormat / TargetFormat name the endpoints of a conversion.
type SourceFormat string

const (
	SourceCSV  SourceFormat = "csv"
	SourceXLSX SourceFormat = "xlsx"
	SourceJSON SourceFormat = "json"
)

type TargetFormat string

const (
	TargetJSON        TargetFormat = "json"
	TargetSpreadsheet TargetFormat = "spreadsheet"
	TargetSQL         TargetFormat = "sql"
)

// ProcessingMode records how a result was derived.
type ProcessingMode string

const (
	ModeDeterministic ProcessingMode = "deterministic"
	ModeAIPowered     ProcessingMode = "ai_powered"
	ModeHybrid        ProcessingMode = "hybrid"
	ModeFallback      ProcessingMode = "fallback_optimization"
)

// TriggerReason explains why the advisor was consulted or why the fallback
// path ran.
type TriggerReason string

const (
	TriggerLowConfidence    TriggerReason = "low_confidence_below_threshold"
	TriggerAmbiguousColumns TriggerReason = "ambiguous_column_types"
	TriggerAIUnavailable    TriggerReason = "ai_unavailable_fallback"
	TriggerUserRequested    TriggerReason = "user_requested"
)

// ConversionRequest is built once per invocation and never mutated.
// ConfidenceThreshold uses the 0-100 scale; adapters convert fractional
// thresholds at the boundary.
type ConversionRequest struct {
	SourceFormat        SourceFormat `json:"source_format"`
	TargetFormat        TargetFormat `json:"target_format"`
	UseAI               bool         `json:"use_ai"`
	ForceAI             bool         `json:"force_ai"`
	ConfidenceThreshold float64      `json:"confidence_threshold"`
	TableName           string       `json:"table_name,omitempty"`
	OutputFilename      string       `json:"output_filename,omitempty"`
}

type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type AIAnalysis struct {
	DetectedPatterns []string `json:"detected_patterns"`
	Recommendations  []string `json:"recommendations"`
}

type AIUsage struct {
	AIUsed           bool              `json:"ai_used"`
	ProcessingMode   ProcessingMode    `json:"processing_mode"`
	TriggerReason    TriggerReason     `json:"trigger_reason,omitempty"`
	IssuesDetected   []string          `json:"issues_detected"`
	AIImprovements   []string          `json:"ai_improvements"`
	TechnicalDetails map[string]string `json:"technical_details,omitempty"`
}

type ConversionMetadata struct {
	RecordCount      int                   `json:"record_count"`
	Confidence       float64               `json:"confidence"`
	ProcessingTimeMs int64                 `json:"processing_time_ms"`
	FileInfo         FileInfo              `json:"file_info"`
	ColumnTypes      map[string]ColumnType `json:"column_types"`
	AIAnalysis       AIAnalysis            `json:"ai_analysis"`
	AIUsage          AIUsage               `json:"ai_usage"`
}

// ConversionResult carries exactly one payload, selected by the requested
// target format, plus the metadata envelope.
type ConversionResult struct {
	Status   string             `json:"status"`
	Data     []byte             `json:"data,omitempty"`   // JSON target
	Binary   []byte             `json:"-"`                // spreadsheet target
	SQL      string             `json:"sql,omitempty"`    // SQL target
	Metadata ConversionMetadata `json:"metadata"`
}

// AdviceRequest is the advisor input: bounded samples plus the deterministic
// verdict per column. The advisor must not mutate it.
type AdviceRequest struct {
	Filename string
	Columns  []AdviceColumn
}

type AdviceColumn struct {
	Name         string     `json:"name"`
	Samples      []string   `json:"samples"`
	DetectedType ColumnType `json:"detected_type"`
	MatchRatio   float64    `json:"match_ratio"`
}

// Advice is a successful advisor reply.
type Advice struct {
	PerColumn           []ColumnSuggestion `json:"columns"`
	AggregateConfidence float64            `json:"aggregate_confidence"`
	Improvements        []string           `json:"improvements"`
	Recommendations     []string           `json:"recommendations"`
}

type ColumnSuggestion struct {
	Name          string     `json:"name"`
	SuggestedType ColumnType `json:"suggested_type"`
	Confidence    float64    `json:"confidence"` // 0-100
}
