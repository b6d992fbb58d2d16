package db

import "time"

// Warehouse table names.
const (
	TableKeyword                = "dim_keyword"
	TableAuthor                 = "dim_author"
	TableJournal                = "dim_journal"
	TablePaper                  = "dim_paper"
	TableAuthorGroup            = "dim_authorgroup"
	TableKeywordGroup           = "dim_keywordgroup"
	TableBridgePaperAuthor      = "bridge_paper_author"
	TableBridgePaperKeyword     = "bridge_paper_keyword"
	TableParagraph              = "dim_paragraph"
	TableSentence               = "dim_sentence"
	TableCitationGroup          = "dim_citationgroup"
	TableBridgeSentenceCitation = "bridge_sentence_citation"
	TableEntity                 = "dim_entity"
	TableEntityHierarchy        = "map_entity_hierarchy"
	TableEntityDetectionFact    = "fact_entity_detection"
	TableAggPaper               = "agg_paper"
	TableETLRuns                = "etl_runs"
)

// Keyword maps dim_keyword.
type Keyword struct {
	KeywordPK int64  `gorm:"column:keyword_pk;primaryKey;autoIncrement:false"`
	Keyword   string `gorm:"column:keyword;type:text;not null;uniqueIndex:uq_dim_keyword"`
}

func (Keyword) TableName() string { return TableKeyword }

// Author maps dim_author. Rows are versioned: only one row per
// (surname, firstname, middlename) carries current_row_indicator = 'Current'.
type Author struct {
	AuthorPK            int64     `gorm:"column:author_pk;primaryKey;autoIncrement:false"`
	Surname             string    `gorm:"column:surname;type:text;not null"`
	Firstname           string    `gorm:"column:firstname;type:text;not null"`
	Middlename          string    `gorm:"column:middlename;type:text;not null"`
	Email               string    `gorm:"column:email;type:text;not null"`
	Department          string    `gorm:"column:department;type:text;not null"`
	Institution         string    `gorm:"column:institution;type:text;not null"`
	Country             string    `gorm:"column:country;type:text;not null"`
	RowEffectiveDate    time.Time `gorm:"column:row_effective_date;type:date;not null"`
	RowExpirationDate   time.Time `gorm:"column:row_expiration_date;type:date;not null"`
	CurrentRowIndicator string    `gorm:"column:current_row_indicator;type:text;not null"`
}

func (Author) TableName() string { return TableAuthor }

// Journal maps dim_journal. All five attributes form the natural key.
type Journal struct {
	JournalPK int64  `gorm:"column:journal_pk;primaryKey;autoIncrement:false"`
	Title     string `gorm:"column:title;type:text;not null;uniqueIndex:uq_dim_journal"`
	Volume    int    `gorm:"column:volume;type:integer;not null;uniqueIndex:uq_dim_journal"`
	Issue     int    `gorm:"column:issue;type:integer;not null;uniqueIndex:uq_dim_journal"`
	Publisher string `gorm:"column:publisher;type:text;not null;uniqueIndex:uq_dim_journal"`
	Place     string `gorm:"column:place;type:text;not null;uniqueIndex:uq_dim_journal"`
}

func (Journal) TableName() string { return TableJournal }

// Paper maps dim_paper.
type Paper struct {
	PaperPK         int64     `gorm:"column:paper_pk;primaryKey;autoIncrement:false"`
	ArticleSourceID string    `gorm:"column:article_source_id;type:text;not null"`
	Citekey         string    `gorm:"column:citekey;type:text;not null"`
	Abstract        string    `gorm:"column:abstract;type:text;not null"`
	Year            time.Time `gorm:"column:year;type:date;not null"`
	Title           string    `gorm:"column:title;type:text;not null"`
	NoOfPages       int       `gorm:"column:no_of_pages;type:integer;not null"`
	JournalPK       int64     `gorm:"column:journal_pk;type:bigint;not null"`
	AuthorgroupPK   int64     `gorm:"column:authorgroup_pk;type:bigint;not null"`
	KeywordgroupPK  int64     `gorm:"column:keywordgroup_pk;type:bigint;not null"`
}

func (Paper) TableName() string { return TablePaper }

// AuthorGroup maps dim_authorgroup.
type AuthorGroup struct {
	AuthorgroupPK int64 `gorm:"column:authorgroup_pk;primaryKey;autoIncrement:false"`
}

func (AuthorGroup) TableName() string { return TableAuthorGroup }

// KeywordGroup maps dim_keywordgroup.
type KeywordGroup struct {
	KeywordgroupPK int64 `gorm:"column:keywordgroup_pk;primaryKey;autoIncrement:false"`
}

func (KeywordGroup) TableName() string { return TableKeywordGroup }

// BridgePaperAuthor maps bridge_paper_author.
type BridgePaperAuthor struct {
	AuthorgroupPK  int64 `gorm:"column:authorgroup_pk;primaryKey;autoIncrement:false"`
	AuthorPK       int64 `gorm:"column:author_pk;primaryKey;autoIncrement:false"`
	AuthorPosition int   `gorm:"column:author_position;type:integer;not null"`
}

func (BridgePaperAuthor) TableName() string { return TableBridgePaperAuthor }

// BridgePaperKeyword maps bridge_paper_keyword.
type BridgePaperKeyword struct {
	KeywordgroupPK int64 `gorm:"column:keywordgroup_pk;primaryKey;autoIncrement:false"`
	KeywordPK      int64 `gorm:"column:keyword_pk;primaryKey;autoIncrement:false"`
}

func (BridgePaperKeyword) TableName() string { return TableBridgePaperKeyword }

// Paragraph maps dim_paragraph.
type Paragraph struct {
	ParagraphPK   int64  `gorm:"column:paragraph_pk;primaryKey;autoIncrement:false"`
	ParaSourceID  string `gorm:"column:para_source_id;type:text;not null;uniqueIndex:uq_dim_paragraph_source"`
	Heading       string `gorm:"column:heading;type:text;not null"`
	Subheading    string `gorm:"column:subheading;type:text;not null"`
	ParagraphType string `gorm:"column:paragraph_type;type:text;not null"`
	PaperPK       int64  `gorm:"column:paper_pk;type:bigint;not null"`
}

func (Paragraph) TableName() string { return TableParagraph }

// Sentence maps dim_sentence.
type Sentence struct {
	SentencePK       int64  `gorm:"column:sentence_pk;primaryKey;autoIncrement:false"`
	SentenceSourceID string `gorm:"column:sentence_source_id;type:text;not null;uniqueIndex:uq_dim_sentence_source"`
	SentenceString   string `gorm:"column:sentence_string;type:text;not null"`
	SentenceType     string `gorm:"column:sentence_type;type:text;not null"`
	CitationgroupPK  int64  `gorm:"column:citationgroup_pk;type:bigint;not null"`
	ParagraphPK      int64  `gorm:"column:paragraph_pk;type:bigint;not null"`
}

func (Sentence) TableName() string { return TableSentence }

// CitationGroup maps dim_citationgroup.
type CitationGroup struct {
	CitationgroupPK int64 `gorm:"column:citationgroup_pk;primaryKey;autoIncrement:false"`
}

func (CitationGroup) TableName() string { return TableCitationGroup }

// BridgeSentenceCitation maps bridge_sentence_citation.
type BridgeSentenceCitation struct {
	CitationgroupPK int64 `gorm:"column:citationgroup_pk;primaryKey;autoIncrement:false"`
	PaperPK         int64 `gorm:"column:paper_pk;primaryKey;autoIncrement:false"`
}

func (BridgeSentenceCitation) TableName() string { return TableBridgeSentenceCitation }

// Entity maps dim_entity.
type Entity struct {
	EntityPK    int64  `gorm:"column:entity_pk;primaryKey;autoIncrement:false"`
	EntityName  string `gorm:"column:entity_name;type:text;not null;uniqueIndex:uq_dim_entity"`
	EntityLabel string `gorm:"column:entity_label;type:text;not null;uniqueIndex:uq_dim_entity"`
}

func (Entity) TableName() string { return TableEntity }

// EntityHierarchy maps map_entity_hierarchy.
type EntityHierarchy struct {
	ParentEntityPK    int64 `gorm:"column:parent_entity_pk;primaryKey;autoIncrement:false"`
	ChildEntityPK     int64 `gorm:"column:child_entity_pk;primaryKey;autoIncrement:false"`
	DepthFromParent   int   `gorm:"column:depth_from_parent;type:integer;not null"`
	HighestParentFlag bool  `gorm:"column:highest_parent_flag;type:boolean;not null"`
	LowestChildFlag   bool  `gorm:"column:lowest_child_flag;type:boolean;not null"`
}

func (EntityHierarchy) TableName() string { return TableEntityHierarchy }

// EntityDetection maps fact_entity_detection.
type EntityDetection struct {
	EntityPK    int64 `gorm:"column:entity_pk;primaryKey;autoIncrement:false"`
	SentencePK  int64 `gorm:"column:sentence_pk;primaryKey;autoIncrement:false"`
	EntityCount int   `gorm:"column:entity_count;type:integer;not null"`
}

func (EntityDetection) TableName() string { return TableEntityDetectionFact }

// AggPaper maps agg_paper: one row per paper with one voted value per entity category.
type AggPaper struct {
	PaperPK          int64     `gorm:"column:paper_pk;primaryKey;autoIncrement:false"`
	ArticleSourceID  string    `gorm:"column:article_source_id;type:text;not null"`
	Citekey          string    `gorm:"column:citekey;type:text;not null"`
	Abstract         string    `gorm:"column:abstract;type:text;not null"`
	Year             time.Time `gorm:"column:year;type:date;not null"`
	Title            string    `gorm:"column:title;type:text;not null"`
	NoOfPages        int       `gorm:"column:no_of_pages;type:integer;not null"`
	JournalPK        int64     `gorm:"column:journal_pk;type:bigint;not null"`
	AuthorgroupPK    int64     `gorm:"column:authorgroup_pk;type:bigint;not null"`
	KeywordgroupPK   int64     `gorm:"column:keywordgroup_pk;type:bigint;not null"`
	ModelElement     string    `gorm:"column:model_element;type:text;not null"`
	Level            string    `gorm:"column:level;type:text;not null"`
	Participants     string    `gorm:"column:participants;type:text;not null"`
	NoOfParticipants int       `gorm:"column:no_of_participants;type:integer;not null"`
	CollectionMethod string    `gorm:"column:collection_method;type:text;not null"`
	Sampling         string    `gorm:"column:sampling;type:text;not null"`
	AnalysisMethod   string    `gorm:"column:analysis_method;type:text;not null"`
	Sector           string    `gorm:"column:sector;type:text;not null"`
	Region           string    `gorm:"column:region;type:text;not null"`
	Metric           string    `gorm:"column:metric;type:text;not null"`
	MetricValue      float64   `gorm:"column:metric_value;type:double precision;not null"`
	ConceptualMethod string    `gorm:"column:conceptual_method;type:text;not null"`
	Topic            string    `gorm:"column:topic;type:text;not null"`
	Technology       string    `gorm:"column:technology;type:text;not null"`
	Theory           string    `gorm:"column:theory;type:text;not null"`
	Paradigm         string    `gorm:"column:paradigm;type:text;not null"`
	CompanyType      string    `gorm:"column:company_type;type:text;not null"`
	Validity         string    `gorm:"column:validity;type:text;not null"`
}

func (AggPaper) TableName() string { return TableAggPaper }

// ETLRun maps etl_runs.
type ETLRun struct {
	RunID        int64      `gorm:"column:run_id;primaryKey;autoIncrement"`
	RunUUID      string     `gorm:"column:run_uuid;type:uuid;not null;unique"`
	Stage        string     `gorm:"column:stage;type:text;not null"`
	StartedAt    time.Time  `gorm:"column:started_at;type:timestamptz;not null"`
	FinishedAt   *time.Time `gorm:"column:finished_at;type:timestamptz"`
	Status       string     `gorm:"column:status;type:text;not null"`
	RowsWritten  int64      `gorm:"column:rows_written;type:bigint;not null"`
	ErrorMessage *string    `gorm:"column:error_message;type:text"`
}

func (ETLRun) TableName() string { return TableETLRuns }

func autoMigrateModels() []any {
	return []any{
		&Keyword{},
		&Author{},
		&Journal{},
		&Paper{},
		&AuthorGroup{},
		&KeywordGroup{},
		&BridgePaperAuthor{},
		&BridgePaperKeyword{},
		&Paragraph{},
		&Sentence{},
		&CitationGroup{},
		&BridgeSentenceCitation{},
		&Entity{},
		&EntityHierarchy{},
		&EntityDetection{},
		&AggPaper{},
		&ETLRun{},
	}
}
