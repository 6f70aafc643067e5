package profile

// Profile tags understood by the rule catalog.
const (
	STA    = "STA" // inpatient baseline
	DAY    = "DAY" // day patient
	ER     = "ER"
	NEO    = "NEO"
	PED    = "PED"
	INF    = "INF"
	CAR    = "CAR"
	OBG    = "OBG"
	NEPH   = "NEPH"
	PUL    = "PUL"
	RHEUM  = "RHEUM"
	URO    = "URO"
	GIH    = "GIH"
	NEURO  = "NEURO"
	TRAUMA = "TRAUMA"
	HEM    = "HEM"
	ONC    = "ONC"
	PONC   = "PONC"
	SURG   = "SURG"
)

// deptKeywords maps department-name substrings (lowercased) to specialty
// profiles. Stems are chosen to avoid false stems in unrelated words, e.g.
// "родильн" rather than "род", which is a substring of "городская".
var deptKeywords = []struct {
	substr  string
	profile string
}{
	{"инфек", INF},
	{"кардиол", CAR},
	{"гинек", OBG},
	{"акуш", OBG},
	{"родильн", OBG},
	{"нефр", NEPH},
	{"пульмон", PUL},
	{"ревмат", RHEUM},
	{"урол", URO},
	{"андролог", URO},
	{"гастро", GIH},
	{"гепат", GIH},
	{"нейрохир", NEURO},
	{"неврол", NEURO},
	{"травмат", TRAUMA},
	{"ортопед", TRAUMA},
	{"гематол", HEM},
	{"онко", ONC},
	{"хирур", SURG},
}

// pediatricStems mark a department as pediatric; combined with an oncology
// match they add the pediatric-oncology profile.
var pediatricStems = []string{"дет", "педиатр"}
