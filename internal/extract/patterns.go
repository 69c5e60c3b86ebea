// Package extract derives the per-page GEO signal record from fetched
// HTML. Each analyzer is a pure function over the parsed document;
// failures are captured per section and never abort the page.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Compiled signal patterns. Counts and examples reported by the
// content-pattern analyzer come straight from these.
var (
	// Questions in body text and headings.
	questionRE = regexp.MustCompile(`(?i)\b(?:what|who|where|when|why|how|which|whose|whom|` +
		`can|could|would|should|will|does|do|did|is|are|was|were|` +
		`have|has|had|may|might|shall)` +
		`\s+[\w\s,'-]+\?`)

	// Headings that simply end with a question mark.
	questionEndingRE = regexp.MustCompile(`^.+\?$`)

	// Definitional phrases.
	definitionRE = regexp.MustCompile(`(?i)\b(?:` +
		`[\w\s]+\s+(?:is|are|was|were)\s+(?:a|an|the)\s+[\w\s,]+` +
		`|[\w\s]+\s+refers?\s+to\s+[\w\s,]+` +
		`|[\w\s]+\s+means?\s+[\w\s,]+` +
		`|defined\s+as\s+[\w\s,]+` +
		`|[\w\s]+\s+(?:is|are)\s+defined\s+as\s+[\w\s,]+` +
		`|the\s+definition\s+of\s+[\w\s]+\s+is\s+[\w\s,]+` +
		`)`)

	comparisonRE = regexp.MustCompile(`(?i)\b(?:` +
		`[\w\s]+\s+vs\.?\s+[\w\s]+` +
		`|[\w\s]+\s+versus\s+[\w\s]+` +
		`|compared\s+to\s+[\w\s]+` +
		`|difference\s+between\s+[\w\s]+\s+and\s+[\w\s]+` +
		`|better\s+than\s+[\w\s]+` +
		`|worse\s+than\s+[\w\s]+` +
		`|pros\s+and\s+cons` +
		`|advantages\s+and\s+disadvantages` +
		`|[\w\s]+\s+or\s+[\w\s]+\?\s+which` +
		`)`)

	// Percentages, currency amounts, large numbers, magnitudes,
	// multipliers, ratios and "N out of M" phrases.
	statisticsRE = regexp.MustCompile(`(?i)(?:` +
		`\d+(?:\.\d+)?%` +
		`|\$\d+(?:,\d{3})*(?:\.\d{2})?(?:\s*(?:million|billion|trillion|M|B|K))?` +
		`|\d+(?:,\d{3})+(?:\.\d+)?` +
		`|\d+(?:\.\d+)?\s*(?:million|billion|trillion|thousand)` +
		`|\d+(?:\.\d+)?x` +
		`|\d+(?:\.\d+)?\s*(?:to|:)\s*\d+(?:\.\d+)?` +
		`|\d+\s+(?:out\s+of|in)\s+\d+` +
		`)`)

	citationRE = regexp.MustCompile(`(?i)(?:` +
		`according\s+to\s+[\w\s,.]+` +
		`|(?:study|research|report|survey|analysis)\s+(?:by|from)\s+[\w\s,]+` +
		`|(?:published|reported)\s+(?:in|by)\s+[\w\s,]+` +
		`|(?:source|data):\s*[\w\s,]+` +
		`|\[\d+\]` +
		`|\(\d{4}\)` +
		`|et\s+al\.?` +
		`)`)

	expertRE = regexp.MustCompile(`(?i)(?:` +
		`\bDr\.?\s+\w+` +
		`|\bPhD\b` +
		`|\bMD\b` +
		`|\bProfessor\s+\w+` +
		`|\bProf\.?\s+\w+` +
		`|\bCertified\b` +
		`|\bLicensed\b` +
		`|\d+\+?\s+years?\s+(?:of\s+)?experience` +
		`|expert\s+(?:in|on)\s+[\w\s]+` +
		`|specialist\s+(?:in|on)\s+[\w\s]+` +
		`|authored\s+by` +
		`|written\s+by` +
		`)`)

	yearRE = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	relativeTimeRE = regexp.MustCompile(`(?i)\b(?:` +
		`today|yesterday|tomorrow` +
		`|last\s+(?:week|month|year|decade)` +
		`|this\s+(?:week|month|year)` +
		`|next\s+(?:week|month|year)` +
		`|(?:a|one|two|three|four|five|six|seven|eight|nine|ten|\d+)\s+` +
		`(?:days?|weeks?|months?|years?)\s+(?:ago|from\s+now|later)` +
		`|recently|currently|now|soon` +
		`)`)

	asOfRE = regexp.MustCompile(`(?i)\bas\s+of\s+[\w\s,\d]+`)

	monthYearRE = regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December` +
		`|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+\d{4}\b`)

	outdatedSignalRE = regexp.MustCompile(`(?i)\b(?:` +
		`outdated|obsolete|deprecated|no\s+longer|was\s+discontinued` +
		`|used\s+to\s+be|formerly|previously|in\s+the\s+past` +
		`)\b`)

	// Subject-predicate-object triples.
	semanticTripleRE = regexp.MustCompile(`(?i)\b([\w\s]+)\s+(is|are|has|have|provides?|offers?|includes?|contains?|` +
		`enables?|allows?|supports?|requires?|uses?|creates?|generates?)\s+([\w\s]+)`)

	trustPageRE = regexp.MustCompile(`(?i)(?:` +
		`/about(?:-us)?/?$` +
		`|/contact(?:-us)?/?$` +
		`|/privacy(?:-policy)?/?$` +
		`|/terms(?:-(?:of-service|and-conditions|of-use))?/?$` +
		`|/author/[\w-]+` +
		`|/team/?$` +
		`|/our-team/?$` +
		`|/editorial(?:-policy)?/?$` +
		`|/disclaimer/?$` +
		`|/legal/?$` +
		`)`)

	emailRE = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	phoneRE = regexp.MustCompile(`(?:` +
		`\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}` +
		`|\+\d{1,3}[-.\s]?\d{2,4}[-.\s]?\d{3,4}[-.\s]?\d{3,4}` +
		`)`)
)

// authorityDomains is the curated set of high-trust sites used to
// credit outbound links. Entries starting with "." match as TLD
// suffixes; the rest match exactly or as subdomains.
var authorityDomains = []string{
	// Government
	".gov", ".gov.uk", ".gov.au", ".gov.ca", ".mil",
	// Educational
	".edu", ".ac.uk", ".edu.au",
	// Reference
	"wikipedia.org", "wikimedia.org", "britannica.com",
	"merriam-webster.com", "dictionary.com",
	// Major news sites
	"nytimes.com", "washingtonpost.com", "theguardian.com",
	"bbc.com", "bbc.co.uk", "reuters.com", "apnews.com", "cnn.com",
	"npr.org", "wsj.com", "economist.com", "forbes.com", "bloomberg.com",
	// Research databases
	"pubmed.gov", "ncbi.nlm.nih.gov", "nature.com", "science.org",
	"sciencedirect.com", "springer.com", "wiley.com", "jstor.org",
	"researchgate.net", "scholar.google.com", "arxiv.org", "doi.org",
	// Tech authority
	"developer.mozilla.org", "w3.org", "ietf.org", "iso.org",
	// Health authority
	"who.int", "cdc.gov", "nih.gov", "mayoclinic.org", "webmd.com",
	"healthline.com",
}

// isAuthorityDomain reports whether a link domain belongs to the
// authority set.
func isAuthorityDomain(domain string) bool {
	d := strings.ToLower(domain)
	for _, auth := range authorityDomains {
		if strings.HasPrefix(auth, ".") {
			if strings.HasSuffix(d, auth) {
				return true
			}
		} else if d == auth || strings.HasSuffix(d, "."+auth) {
			return true
		}
	}
	return false
}

// genericAnchors is the multilingual set of anchor texts that carry no
// descriptive value (EN/FR/ES plus common symbols).
var genericAnchors = map[string]struct{}{}

func init() {
	for _, a := range []string{
		// English
		"click here", "click", "here", "read more", "read", "more", "learn more",
		"learn", "see more", "view more", "view", "see", "go", "go here", "link",
		"this link", "this page", "this article", "this post", "continue",
		"continue reading", "full article", "full story", "details", "more info",
		"more information", "info", "download", "get it", "get", "start",
		"start here", "begin", "next", "previous", "back", "home", "website",
		"site", "page", "article", "post", "blog", "check it out", "check out",
		"find out", "find out more", "discover", "explore", "visit", "source",
		// French
		"cliquez ici", "cliquer ici", "cliquez", "ici", "en savoir plus",
		"lire la suite", "lire plus", "lire", "voir plus", "voir", "suite",
		"continuer", "plus", "plus d'info", "plus d'infos", "plus d'informations",
		"en apprendre plus", "découvrir", "découvrez", "visiter", "visitez",
		"accéder", "accédez", "consulter", "consultez", "télécharger",
		"commencer", "suivant", "précédent", "retour", "accueil", "page",
		"article", "ce lien", "cette page", "cet article", "ce site",
		// Spanish
		"haga clic aquí", "clic aquí", "haz clic", "clic", "aquí", "leer más",
		"leer", "más", "ver más", "ver", "saber más", "más información",
		"más info", "continuar", "continuar leyendo", "siguiente", "anterior",
		"volver", "inicio", "página", "artículo", "descargar", "obtener",
		"comenzar", "empezar", "descubrir", "descubre", "explorar", "visitar",
		"visita", "este enlace", "esta página", "este artículo", "este sitio",
		// Common symbols
		">", ">>", "→", "...", "»", "more...", "lire...", "más...",
	} {
		genericAnchors[a] = struct{}{}
	}
}

var genericAnchorREs = []*regexp.Regexp{
	regexp.MustCompile(`^click\s`),
	regexp.MustCompile(`^clic\s`),
	regexp.MustCompile(`\shere$`),
	regexp.MustCompile(`\sici$`),
	regexp.MustCompile(`\saquí$`),
	regexp.MustCompile(`^read\s`),
	regexp.MustCompile(`^lire\s`),
	regexp.MustCompile(`^leer\s`),
	regexp.MustCompile(`^voir\s`),
	regexp.MustCompile(`^ver\s`),
	regexp.MustCompile(`more\s*>>?$`),
	regexp.MustCompile(`plus\s*>>?$`),
	regexp.MustCompile(`más\s*>>?$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^#\d+$`),
}

// isGenericAnchor classifies an already-lowercased anchor text.
// Anchors of one or two characters are always generic.
func isGenericAnchor(anchorLower string) bool {
	if utf8.RuneCountInString(anchorLower) <= 2 {
		return true
	}
	if _, ok := genericAnchors[anchorLower]; ok {
		return true
	}
	for _, re := range genericAnchorREs {
		if re.MatchString(anchorLower) {
			return true
		}
	}
	return false
}
