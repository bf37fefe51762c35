package config

import (
	"log"
	"os"
	"strconv"
)

// Pricing holds the cost policy injected into the lifecycle service. Defaults
// mirror the seeded CostConfiguration row; the row wins once loaded at startup.
type Pricing struct {
	ProfitMin     float64
	ProfitMax     float64
	ValidityHours int
	Terms         string
	PaymentTerms  string
}

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string

	// BaseURL prefixes client-facing access links and document URLs.
	BaseURL string

	// DocumentDir is where rendered artifacts land; DocumentFormat selects the
	// rendering backend ("html" or "pdf").
	DocumentDir    string
	DocumentFormat string

	AdminUser string
	AdminPass string

	// Notification recipients for internal intents.
	OperationsEmail string
	DirectorEmail   string
	AuditEmail      string

	Pricing Pricing
}

const (
	defaultTerms = `1. Esta propuesta es válida solo para el servicio descrito.
2. Los precios están sujetos a cambios en caso de modificación del servicio.
3. ACME TRANS se reserva el derecho de rechazar carga peligrosa sin previo aviso.
4. El cliente debe proporcionar toda la documentación necesaria para el transporte.
5. Los tiempos de entrega son estimados y pueden variar según condiciones climáticas y de tráfico.`
	defaultPaymentTerms = "50% al inicio del servicio, 50% al completar la entrega"
)

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "file:mgcp.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:"+cfg.Port)
	cfg.DocumentDir = getEnv("DOCUMENT_DIR", "documentos_generados")
	cfg.DocumentFormat = getEnv("DOCUMENT_FORMAT", "html")
	cfg.AdminUser = getEnv("ADMIN_USER", "director")
	cfg.AdminPass = getEnv("ADMIN_PASS", "")
	cfg.OperationsEmail = getEnv("OPERATIONS_EMAIL", "operaciones@acmetrans.cl")
	cfg.DirectorEmail = getEnv("DIRECTOR_EMAIL", "director@acmetrans.cl")
	cfg.AuditEmail = getEnv("AUDIT_EMAIL", "auditoria@acmetrans.cl")
	cfg.Pricing = Pricing{
		ProfitMin:     getEnvFloat("PROFIT_MIN", 25),
		ProfitMax:     getEnvFloat("PROFIT_MAX", 35),
		ValidityHours: getEnvInt("PROPOSAL_VALIDITY_HOURS", 24),
		Terms:         defaultTerms,
		PaymentTerms:  defaultPaymentTerms,
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("invalid float for %s: %s", key, v)
			return def
		}
		return f
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}
