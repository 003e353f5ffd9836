package api

// CredentialField describes one credential input a provider needs. Optional
// fields may be left empty and are then omitted from the saved payload.
type CredentialField struct {
	Key      string
	Label    string
	Optional bool
}

// Provider declares an LLM provider variant together with its credential
// field set. The set is fixed; there is no free-form provider entry.
type Provider struct {
	ID     string
	Label  string
	Fields []CredentialField
}

// Providers lists the supported LLM providers in display order.
var Providers = []Provider{
	{
		ID:    "azure",
		Label: "Azure OpenAI",
		Fields: []CredentialField{
			{Key: "api_key", Label: "Azure API Key"},
			{Key: "api_base", Label: "Azure API Base URL (Endpoint)"},
			{Key: "api_version", Label: "Azure API Version"},
		},
	},
	{
		ID:    "nvidia",
		Label: "Nvidia NIM",
		Fields: []CredentialField{
			{Key: "nvidia_api_key", Label: "Nvidia API Key"},
			{Key: "api_base", Label: "Nvidia Base URL", Optional: true},
		},
	},
}

// ProviderByID looks up a provider variant; ok is false for unknown ids.
func ProviderByID(id string) (Provider, bool) {
	for _, p := range Providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// Validate checks a config request against the provider's declared fields.
// It returns a human-readable problem, or "" when the request is submittable.
func (p Provider) Validate(modelName string, credentials map[string]string) string {
	if modelName == "" {
		return "Model name is required"
	}
	for _, f := range p.Fields {
		if f.Optional {
			continue
		}
		if credentials[f.Key] == "" {
			return f.Label + " is required"
		}
	}
	return ""
}

// BuildRequest assembles the payload, dropping optional-but-empty fields so
// they are omitted rather than sent as empty strings.
func (p Provider) BuildRequest(modelName string, credentials map[string]string) LLMConfigRequest {
	creds := make(map[string]string, len(p.Fields))
	for _, f := range p.Fields {
		v := credentials[f.Key]
		if v == "" && f.Optional {
			continue
		}
		creds[f.Key] = v
	}
	return LLMConfigRequest{Provider: p.ID, ModelName: modelName, Credentials: creds}
}
