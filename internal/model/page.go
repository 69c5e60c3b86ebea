package model

// PageResult is the extraction output for one fetched URL. The JSON
// shape is the record the ingestion API stores; absent values are
// explicit nulls, not missing keys, so nullable fields are pointers
// without omitempty.
type PageResult struct {
	URL        string  `json:"url"`
	StatusCode *int    `json:"status_code"`
	Depth      int     `json:"depth"`
	Referrer   *string `json:"referrer"`
	CrawledAt  string  `json:"crawled_at"`

	Crawler CrawlerInfo `json:"crawler"`

	PageSizeBytes        int `json:"page_size_bytes"`
	WordCount            int `json:"word_count"`
	MainContentWordCount int `json:"main_content_word_count"`

	BodyText    string `json:"body_text"`
	MainContent string `json:"main_content"`

	Metadata PageMetadata `json:"metadata"`

	H2Tags []string `json:"h2_tags"`
	H3Tags []string `json:"h3_tags"`

	CanonicalURL *string `json:"canonical_url"`
	MetaRobots   *string `json:"meta_robots"`
	Lang         *string `json:"lang"`
	Viewport     *string `json:"viewport"`
	Charset      *string `json:"charset"`

	OG      OpenGraph   `json:"og"`
	Twitter TwitterCard `json:"twitter"`

	Images      []Image `json:"images"`
	ImagesCount int     `json:"images_count"`

	InternalLinks      []Link         `json:"internal_links"`
	InternalLinksCount int            `json:"internal_links_count"`
	ExternalLinks      []Link         `json:"external_links"`
	ExternalLinksCount int            `json:"external_links_count"`
	LinkLocations      LinkLocations  `json:"link_locations"`
	AnchorAnalysis     AnchorAnalysis `json:"anchor_analysis"`

	JSONLD      []any    `json:"json_ld"`
	SchemaTypes []string `json:"schema_types"`

	ContentAge ContentAge `json:"content_age"`

	RequestHeaders  map[string]string `json:"request_headers"`
	ResponseHeaders map[string]string `json:"response_headers"`
	Performance     Performance       `json:"performance"`
	ScreenshotPath  *string           `json:"screenshot_path"`
	RawHTML         string            `json:"raw_html"`
	Error           *string           `json:"error"`

	// Optional markdown rendition of the main content.
	Markdown *string `json:"markdown,omitempty"`

	Readability          Readability          `json:"readability"`
	ContentPatterns      ContentPatterns      `json:"content_patterns"`
	HeadingAnalysis      HeadingAnalysis      `json:"heading_analysis"`
	StructureElements    StructureElements    `json:"structure_elements"`
	SchemaAnalysis       SchemaAnalysis       `json:"schema_analysis"`
	EEATSignals          EEATSignals          `json:"eeat_signals"`
	OutboundLinkAnalysis OutboundLinkAnalysis `json:"outbound_link_analysis"`
	LinkCheck            *LinkCheck           `json:"link_check,omitempty"`
	Hreflang             Hreflang             `json:"hreflang"`
	TemporalSignals      TemporalSignals      `json:"temporal_signals"`
	Multimedia           Multimedia           `json:"multimedia"`
	AICrawlability       AICrawlability       `json:"ai_crawlability"`
}

// CrawlerInfo annotates each page with the crawler build and the job
// parameters that produced it.
type CrawlerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
	JSMode  string `json:"js_mode"`
	Scope   string `json:"scope"`
}

type PageMetadata struct {
	Title           *string `json:"title"`
	MetaDescription *string `json:"meta_description"`
	H1              *string `json:"h1"`
}

type OpenGraph struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	URL         *string `json:"url"`
	Type        *string `json:"type"`
	SiteName    *string `json:"site_name"`
}

type TwitterCard struct {
	Card        *string `json:"card"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Site        *string `json:"site"`
}

type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Link is one internal or external link with its anchor text.
type Link struct {
	URL      string `json:"url"`
	Anchor   string `json:"anchor"`
	NoFollow bool   `json:"nofollow"`
}

// LinkLocations partitions links by the page region that encloses them.
type LinkLocations struct {
	Nav    RegionLinks `json:"nav"`
	Header RegionLinks `json:"header"`
	Footer RegionLinks `json:"footer"`
	Aside  RegionLinks `json:"aside"`
	Main   RegionLinks `json:"main"`
}

type RegionLinks struct {
	Count int    `json:"count"`
	Links []Link `json:"links"`
}

// AnchorAnalysis classifies internal anchor texts as empty, generic or
// good and reports counts, percents and samples.
type AnchorAnalysis struct {
	TotalInternalLinks   int      `json:"total_internal_links"`
	GenericAnchorCount   int      `json:"generic_anchor_count"`
	GenericAnchorPercent float64  `json:"generic_anchor_percent"`
	EmptyAnchorCount     int      `json:"empty_anchor_count"`
	EmptyAnchorPercent   float64  `json:"empty_anchor_percent"`
	GoodAnchorCount      int      `json:"good_anchor_count"`
	GoodAnchorPercent    float64  `json:"good_anchor_percent"`
	GenericAnchorSamples []Link   `json:"generic_anchor_samples"`
	EmptyAnchorSamples   []Link   `json:"empty_anchor_samples"`
	Error                *string  `json:"error,omitempty"`
}

// ContentAge is the final published/modified resolution with the
// source each date came from.
type ContentAge struct {
	Published *string           `json:"published"`
	Modified  *string           `json:"modified"`
	Sources   map[string]string `json:"sources"`
	AgeDays   *int              `json:"age_days"`
	Error     *string           `json:"error,omitempty"`
}

// Performance carries fetch latency and, for rendered pages, the
// navigation-timing readout.
type Performance struct {
	DownloadLatencyS *float64   `json:"download_latency_s"`
	Timing           *NavTiming `json:"timing"`
}

// NavTiming is the browser navigation-timing snapshot.
type NavTiming struct {
	DNSLookupMS      float64 `json:"dns_lookup_ms"`
	TCPConnectMS     float64 `json:"tcp_connect_ms"`
	TTFBMS           float64 `json:"ttfb_ms"`
	DOMLoadMS        float64 `json:"dom_load_ms"`
	FullLoadMS       float64 `json:"full_load_ms"`
	DOMInteractiveMS float64 `json:"dom_interactive_ms"`
	TransferSize     float64 `json:"transfer_size"`
	EncodedSize      float64 `json:"encoded_size"`
	DecodedSize      float64 `json:"decoded_size"`
}

type Readability struct {
	FleschReadingEase        *float64 `json:"flesch_reading_ease"`
	FleschKincaidGrade       *float64 `json:"flesch_kincaid_grade"`
	GunningFog               *float64 `json:"gunning_fog"`
	SMOGIndex                *float64 `json:"smog_index"`
	AutomatedReadabilityIdx  *float64 `json:"automated_readability_index"`
	ColemanLiauIndex         *float64 `json:"coleman_liau_index"`
	ReadingTimeMinutes       float64  `json:"reading_time_minutes"`
	SentenceCount            int      `json:"sentence_count"`
	AvgSentenceLength        float64  `json:"avg_sentence_length"`
	AvgWordLength            float64  `json:"avg_word_length"`
	SyllableCount            int      `json:"syllable_count"`
	DifficultWordsCount      int      `json:"difficult_words_count"`
	DifficultWordsPercent    float64  `json:"difficult_words_percent"`
	WordCount                int      `json:"word_count"`
	Error                    *string  `json:"error,omitempty"`
}

type ContentPatterns struct {
	QuestionsCount           int      `json:"questions_count"`
	QuestionsExamples        []string `json:"questions_examples"`
	QuestionHeadingsCount    int      `json:"question_headings_count"`
	QuestionHeadingsExamples []string `json:"question_headings_examples"`
	DefinitionsCount         int      `json:"definitions_count"`
	DefinitionsExamples      []string `json:"definitions_examples"`
	ComparisonsCount         int      `json:"comparisons_count"`
	StatisticsCount          int      `json:"statistics_count"`
	StatisticsExamples       []string `json:"statistics_examples"`
	CitationsCount           int      `json:"citations_count"`
	CitationsExamples        []string `json:"citations_examples"`
	ExpertMentionsCount      int      `json:"expert_mentions_count"`
	SemanticTriplesCount     int      `json:"semantic_triples_count"`
	SemanticTriplesExamples  []string `json:"semantic_triples_examples"`
	Error                    *string  `json:"error,omitempty"`
}

type Heading struct {
	Level     int    `json:"level"`
	Tag       string `json:"tag"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

type HeadingAnalysis struct {
	Headings         []Heading `json:"headings"`
	H1Count          int       `json:"h1_count"`
	H2Count          int       `json:"h2_count"`
	H3Count          int       `json:"h3_count"`
	H4Count          int       `json:"h4_count"`
	H5Count          int       `json:"h5_count"`
	H6Count          int       `json:"h6_count"`
	TotalHeadings    int       `json:"total_headings"`
	HierarchyIssues  []string  `json:"hierarchy_issues"`
	AvgHeadingLength float64   `json:"avg_heading_length"`
	Error            *string   `json:"error,omitempty"`
}

type TableDetail struct {
	Rows      int     `json:"rows"`
	Cells     int     `json:"cells"`
	HasHeader bool    `json:"has_header"`
	Caption   *string `json:"caption"`
}

type StructureElements struct {
	OrderedListsCount      int           `json:"ordered_lists_count"`
	UnorderedListsCount    int           `json:"unordered_lists_count"`
	TotalListItems         int           `json:"total_list_items"`
	TablesCount            int           `json:"tables_count"`
	TableDetails           []TableDetail `json:"table_details"`
	BlockquotesCount       int           `json:"blockquotes_count"`
	BlockquoteSamples      []string      `json:"blockquote_samples"`
	PreCodeBlocksCount     int           `json:"pre_code_blocks_count"`
	InlineCodeCount        int           `json:"inline_code_count"`
	DefinitionListsCount   int           `json:"definition_lists_count"`
	DefinitionTermsCount   int           `json:"definition_terms_count"`
	AccordionsCount        int           `json:"accordions_count"`
	FiguresCount           int           `json:"figures_count"`
	FiguresWithCaption     int           `json:"figures_with_caption_count"`
	Error                  *string       `json:"error,omitempty"`
}

type SchemaAnalysis struct {
	JSONLDBlocks        []any    `json:"json_ld_blocks"`
	SchemaTypes         []string `json:"schema_types"`
	HasFAQSchema        bool     `json:"has_faq_schema"`
	HasHowToSchema      bool     `json:"has_howto_schema"`
	HasArticleSchema    bool     `json:"has_article_schema"`
	HasPersonSchema     bool     `json:"has_person_schema"`
	HasOrgSchema        bool     `json:"has_organization_schema"`
	HasProductSchema    bool     `json:"has_product_schema"`
	HasBreadcrumbSchema bool     `json:"has_breadcrumb_schema"`
	HasWebPageSchema    bool     `json:"has_webpage_schema"`
	SchemaAuthor        *string  `json:"schema_author"`
	SchemaDatePublished *string  `json:"schema_date_published"`
	SchemaDateModified  *string  `json:"schema_date_modified"`
	SchemaDateCreated   *string  `json:"schema_date_created"`
	Error               *string  `json:"error,omitempty"`
}

type EEATSignals struct {
	AuthorName         *string  `json:"author_name"`
	AuthorURL          *string  `json:"author_url"`
	PublishedDate      *string  `json:"published_date"`
	ModifiedDate       *string  `json:"modified_date"`
	HasAboutPageLink   bool     `json:"has_about_page_link"`
	HasContactPageLink bool     `json:"has_contact_page_link"`
	HasPrivacyPageLink bool     `json:"has_privacy_page_link"`
	HasTermsPageLink   bool     `json:"has_terms_page_link"`
	HasAuthorPageLink  bool     `json:"has_author_page_link"`
	TrustPageLinks     []string `json:"trust_page_links"`
	HasEmail           bool     `json:"has_email"`
	HasPhone           bool     `json:"has_phone"`
	HasAddress         bool     `json:"has_address"`
	CredentialsFound   []string `json:"credentials_found"`
	Error              *string  `json:"error,omitempty"`
}

type OutboundLink struct {
	URL        string `json:"url"`
	Domain     string `json:"domain"`
	AnchorText string `json:"anchor_text"`
	NoFollow   bool   `json:"nofollow"`
	Sponsored  bool   `json:"sponsored"`
	UGC        bool   `json:"ugc"`
}

type OutboundLinkAnalysis struct {
	OutboundLinks       []OutboundLink `json:"outbound_links"`
	TotalOutboundCount  int            `json:"total_outbound_count"`
	AuthorityLinks      []OutboundLink `json:"authority_links"`
	AuthorityLinksCount int            `json:"authority_links_count"`
	GovEduLinksCount    int            `json:"gov_edu_links_count"`
	WikipediaLinksCount int            `json:"wikipedia_links_count"`
	UniqueDomainsCount  int            `json:"unique_domains_count"`
	NoFollowCount       int            `json:"nofollow_count"`
	NoFollowRatio       float64        `json:"nofollow_ratio"`
	Error               *string        `json:"error,omitempty"`
}

// LinkCheck is the optional outbound broken-link sample.
type LinkCheck struct {
	CheckedLinksCount int          `json:"checked_links_count"`
	BrokenLinksCount  int          `json:"broken_links_count"`
	BrokenLinks       []LinkStatus `json:"broken_links"`
	SampledLinks      []LinkStatus `json:"sampled_links"`
	Error             *string      `json:"error,omitempty"`
}

type LinkStatus struct {
	URL    string `json:"url"`
	Status *int   `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type HreflangTag struct {
	Hreflang string `json:"hreflang"`
	Href     string `json:"href"`
}

type Hreflang struct {
	HreflangTags         []HreflangTag `json:"hreflang_tags"`
	HreflangCount        int           `json:"hreflang_count"`
	UniqueHreflangValues []string      `json:"unique_hreflang_values"`
	HasXDefault          bool          `json:"has_x_default"`
	Error                *string       `json:"error,omitempty"`
}

type TemporalSignals struct {
	YearsMentioned         []int    `json:"years_mentioned"`
	MostRecentYear         *int     `json:"most_recent_year"`
	OldestYear             *int     `json:"oldest_year"`
	HasCurrentYear         bool     `json:"has_current_year"`
	HasLastYear            bool     `json:"has_last_year"`
	RelativeTimePhrases    []string `json:"relative_time_phrases"`
	AsOfStatements         []string `json:"as_of_statements"`
	MonthYearReferences    []string `json:"month_year_references"`
	OutdatedSignalsCount   int      `json:"outdated_signals_count"`
	ContentAgeDays         *int     `json:"content_age_days"`
	LastUpdateAgeDays      *int     `json:"last_update_age_days"`
	HTTPLastModified       *string  `json:"http_last_modified"`
	HTTPLastModifiedAgeDay *int     `json:"http_last_modified_age_days"`
	Error                  *string  `json:"error,omitempty"`
}

type MediaItem struct {
	Type     string `json:"type"`
	Src      string `json:"src"`
	Platform string `json:"platform"`
}

type PDFLink struct {
	URL        string `json:"url"`
	AnchorText string `json:"anchor_text"`
}

type Multimedia struct {
	Videos           []MediaItem `json:"videos"`
	VideoCount       int         `json:"video_count"`
	HasVideo         bool        `json:"has_video"`
	Audio            []MediaItem `json:"audio"`
	AudioCount       int         `json:"audio_count"`
	HasAudio         bool        `json:"has_audio"`
	PDFs             []PDFLink   `json:"pdfs"`
	PDFCount         int         `json:"pdf_count"`
	HasPDF           bool        `json:"has_pdf"`
	Infographics     []Image     `json:"infographics"`
	InfographicCount int         `json:"infographic_count"`
	Error            *string     `json:"error,omitempty"`
}

type AICrawlability struct {
	ContentRatio         float64  `json:"content_ratio"`
	HTMLSizeBytes        int      `json:"html_size_bytes"`
	TextSizeBytes        int      `json:"text_size_bytes"`
	InlineScriptsCount   int      `json:"inline_scripts_count"`
	ExternalScriptsCount int      `json:"external_scripts_count"`
	TotalScriptsCount    int      `json:"total_scripts_count"`
	HasNoscriptContent   bool     `json:"has_noscript_content"`
	MetaRobots           *string  `json:"meta_robots"`
	IframeCount          int      `json:"iframe_count"`
	LazyImagesCount      int      `json:"lazy_images_count"`
	DataSrcImagesCount   int      `json:"data_src_images_count"`
	CustomElementsCount  int      `json:"custom_elements_count"`
	CanvasElementsCount  int      `json:"canvas_elements_count"`
	JSFrameworkSignals   []string `json:"js_framework_signals"`
	Error                *string  `json:"error,omitempty"`
}
