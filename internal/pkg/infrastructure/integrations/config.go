package integrations

// Definition describes how to reach a printer vendor api and how to map its
// responses. Sources are dotted paths into the json body, a leading
// "response.body" is ignored.
type Definition struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	API         API         `yaml:"api"`
	DataMapping DataMapping `yaml:"data_mapping"`
}

type API struct {
	BaseURL        string            `yaml:"base_url"`
	Endpoints      map[string]string `yaml:"endpoints"`
	Authentication Authentication    `yaml:"authentication"`
	RequestOptions RequestOptions    `yaml:"request_options"`
}

type Authentication struct {
	Type   string `yaml:"type"`
	Scheme string `yaml:"scheme"`
	Header string `yaml:"header"`
}

type RequestOptions struct {
	TimeoutSeconds float64           `yaml:"timeout_seconds"`
	Headers        map[string]string `yaml:"headers"`
}

type Mapping struct {
	Source  string            `yaml:"source"`
	Default any               `yaml:"default"`
	Mapping map[string]string `yaml:"mapping"`
}

type DataMapping struct {
	Status                  Mapping  `yaml:"status"`
	PrintProgressPercentage *Mapping `yaml:"print_progress_percentage"`
	TimeRemainingSeconds    *Mapping `yaml:"time_remaining_seconds"`
	TimePrintingSeconds     *Mapping `yaml:"time_printing_seconds"`
	FilamentMaterial        *Mapping `yaml:"filament_material"`
	FileName                *Mapping `yaml:"file_name"`
}

const (
	EndpointStatus     = "status"
	EndpointJobDetails = "job_details"

	AuthAPIKey    = "apiKey"
	AuthHeaderKey = "headerKey"
	AuthBasic     = "basicAuth"

	DefaultTimeoutSeconds = 10
)
