package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// MetadataFileName is the per-case metadata document stored in each container.
	MetadataFileName = "metadata.json"
	// HistoryFileName is the per-case append-only history log stored in each container.
	HistoryFileName = "history.json"
)

// SLARules holds the letter deadlines in days. L1 counts from the placement
// date; L2 and L3 count from the previous letter's send date.
type SLARules struct {
	L1Deadline int
	L2Deadline int
	L3Deadline int
}

// StatusColors maps status classes to display colors.
type StatusColors struct {
	MTC    string // message to client open
	MSG    string // client response pending acknowledgment
	Red    string // overdue / integrity violation
	Yellow string // due today
	Green  string // on track
	Black  string // neutral (no SLA, complete, unknown)
}

type Config struct {
	ServerPort  string
	Environment string

	// Case source (read-only spreadsheet)
	SheetPath string
	SheetTab  string

	// Folder store
	DataDir          string // local storage root for case containers
	ArchiveDir       string // closed cases move here
	BankruptcyDir    string // bankruptcy cases move here
	FolderNameMaxLen int
	Subfolders       []string
	AuditDBPath      string
	ApplyCorrections bool // apply integrity corrections eagerly on deny

	// Letter templates: action code -> HTML template path.
	// A configured template lets the processor generate the document itself
	// instead of requiring a manual upload.
	Templates map[string]string

	// Email (Resend) — optional delivery of generated letters
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged to console instead of sent

	// Cloudflare R2 Storage (falls back to local filesystem when unset)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	// Current operator, used for history entry initials
	OperatorEmail string

	SLA    SLARules
	Colors StatusColors
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		SheetPath: getEnv("SHEET_PATH", "data/cases.xlsx"),
		SheetTab:  getEnv("SHEET_TAB", "1"),

		DataDir:          getEnv("DATA_DIR", "data/cases"),
		ArchiveDir:       getEnv("ARCHIVE_DIR", "_archive"),
		BankruptcyDir:    getEnv("BANKRUPTCY_DIR", "_bankruptcy"),
		FolderNameMaxLen: getEnvInt("FOLDER_NAME_MAX_LEN", 50),
		Subfolders:       []string{"demands", "correspondence", "filings", "settlements"},
		AuditDBPath:      getEnv("AUDIT_DB_PATH", "db/audit.db"),
		ApplyCorrections: getEnvBool("APPLY_CORRECTIONS", true),

		Templates: loadTemplates(),

		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "collections@example.com"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Collections Desk"),
		EmailTestMode: getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		OperatorEmail: getEnv("OPERATOR_EMAIL", ""),

		SLA:    DefaultSLA(),
		Colors: DefaultColors(),
	}
}

// DefaultSLA returns the production letter deadlines.
func DefaultSLA() SLARules {
	return SLARules{
		L1Deadline: getEnvInt("SLA_L1_DEADLINE", 2),
		L2Deadline: getEnvInt("SLA_L2_DEADLINE", 10),
		L3Deadline: getEnvInt("SLA_L3_DEADLINE", 10),
	}
}

// DefaultColors returns the traffic-light palette used by the UI.
func DefaultColors() StatusColors {
	return StatusColors{
		MTC:    "#0000FF",
		MSG:    "#4285F4",
		Red:    "#cc0000",
		Yellow: "#f1c232",
		Green:  "#0d7813",
		Black:  "#000000",
	}
}

// loadTemplates reads TEMPLATE_<CODE> env vars for the letter actions.
// An absent template means the action requires a manually uploaded document.
func loadTemplates() map[string]string {
	templates := map[string]string{}
	for _, code := range []string{"L1", "L2", "L3", "MCA"} {
		if path := os.Getenv("TEMPLATE_" + code); path != "" {
			templates[code] = path
		}
	}
	return templates
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[WARNING] Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
