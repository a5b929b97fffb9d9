package domain_models

// RunFingerprint records which providers served a request so downstream trust
// assessments can audit where every fact came from.
type RunFingerprint struct {
	RunMode            RunMode `json:"run_mode"`
	PoiProvider        string  `json:"poi_provider"`
	RouteProvider      string  `json:"route_provider"`
	LLMProvider        string  `json:"llm_provider"`
	StrictExternalData bool    `json:"strict_external_data"`
	EnvSource          string  `json:"env_source"`
	TraceID            string  `json:"trace_id"`
}
