package domain

import "time"

// Neighborhood is one row of the neighborhood catalog.
type Neighborhood struct {
	Name                 string  `json:"bairro"`
	Region               string  `json:"regiao"`
	UrbanProfile         string  `json:"perfil_urbano"`
	LandUse              string  `json:"uso_predominante"`
	Infrastructure       string  `json:"infraestrutura"`
	NoiseLevel           string  `json:"nivel_ruido"`
	PredominantStandard  string  `json:"padrao_predominante"`
	AveragePricePerSqm   float64 `json:"valor_m2_medio"`
	SocioeconomicProfile string  `json:"perfil_socioeconomico"`
	PriceOrigin          string  `json:"origem_valor,omitempty"`
}

// ScoreRequest carries the inputs of one compatibility score.
type ScoreRequest struct {
	Neighborhood    Neighborhood `json:"bairro"`
	Budget          float64      `json:"orcamento"`
	PropertyValue   float64      `json:"valor_imovel"`
	Area            float64      `json:"area"`
	DesiredStandard string       `json:"padrao_desejado"`
	Financing       bool         `json:"financia"`
}

type Classification string

const (
	ClassExcellent Classification = "Excelente compatibilidade"
	ClassGood      Classification = "Boa compatibilidade"
	ClassLimited   Classification = "Compatibilidade limitada"
	ClassLow       Classification = "Baixa compatibilidade"
)

type ScoreResult struct {
	Value          int            `json:"valor"`
	Classification Classification `json:"classificacao"`
	Explanations   []string       `json:"explicacoes"`
}

// ---- Payments ----

type PaymentStatus string

const (
	PaymentMissing PaymentStatus = "inexistente"
	PaymentPending PaymentStatus = "pendente"
	PaymentPaid    PaymentStatus = "pago"
)

// PaymentRecord is keyed by an opaque token. Data holds the report form fields.
type PaymentRecord struct {
	Status PaymentStatus     `json:"status"`
	Data   map[string]string `json:"dados"`
}

// ---- Pilot ----

type PilotWindow struct {
	Start time.Time `json:"inicio"`
	End   time.Time `json:"fim"`
}

func (w PilotWindow) IsZero() bool { return w.Start.IsZero() || w.End.IsZero() }

// Active reports whether now lies in [Start, End].
func (w PilotWindow) Active(now time.Time) bool {
	if w.IsZero() {
		return false
	}
	return !now.Before(w.Start) && !now.After(w.End)
}

type PilotCPFRecord struct {
	ReportToken         string `json:"report_token"`
	CreatedAt           string `json:"criado_em"`
	FeedbackSubmittedAt string `json:"feedback_enviado_em"`
}

type FeedbackRecord struct {
	Token     string            `json:"token"`
	CPFHash   string            `json:"cpf_hash"`
	Timestamp string            `json:"ts"`
	Answers   map[string]string `json:"respostas"`
}

type AuditEvent struct {
	Timestamp string `json:"ts"`
	Type      string `json:"tipo"`
	CPFHash   string `json:"cpf_hash"`
	Token     string `json:"token"`
	IPHash    string `json:"ip_hash"`
	UserAgent string `json:"ua"`
}

// PilotState is the whole pilot document as persisted by the JSON backend.
type PilotState struct {
	WindowStart string                    `json:"window_start"`
	WindowEnd   string                    `json:"window_end"`
	CPFs        map[string]PilotCPFRecord `json:"cpfs"`
	Tokens      map[string]string         `json:"tokens"`
	Feedback    []FeedbackRecord          `json:"feedback"`
	Events      []AuditEvent              `json:"eventos"`
}

func NewPilotState() *PilotState {
	return &PilotState{
		CPFs:     map[string]PilotCPFRecord{},
		Tokens:   map[string]string{},
		Feedback: []FeedbackRecord{},
		Events:   []AuditEvent{},
	}
}

// PilotCounts aggregates the pilot state for metrics.
type PilotCounts struct {
	Generated int
	Feedback  int
	Events    int
}

// TimeLayout is the UTC timestamp format used across persisted state.
const TimeLayout = "2006-01-02T15:04:05Z"

func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

func ParseTime(s string) (time.Time, bool) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
