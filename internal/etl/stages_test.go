package etl

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/author"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

func runStage(t *testing.T, stage Stage, store source.Store, w Warehouse) int64 {
	t.Helper()
	ctx := context.Background()
	if err := stage.Load(ctx, store, w); err != nil {
		t.Fatalf("%s load: %v", stage.Name(), err)
	}
	n, err := stage.Write(ctx, w)
	if err != nil {
		t.Fatalf("%s write: %v", stage.Name(), err)
	}
	return n
}

func TestWriteBeforeLoadFails(t *testing.T) {
	t.Parallel()

	for _, name := range StageNames {
		stage, err := NewStage(name, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewStage(%q): %v", name, err)
		}
		if _, err := stage.Write(context.Background(), newFakeWarehouse()); !errors.Is(err, ErrNotLoaded) {
			t.Fatalf("%s: expected ErrNotLoaded, got %v", name, err)
		}
	}
	if _, err := NewStage("bogus", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown stage")
	}
}

func TestKeywordStageCollapsesCaseAndWhitespace(t *testing.T) {
	t.Parallel()

	store := memStore{source.KeywordsFile: csvLines("article_id,keyword", "1,Climate", "2,climate ")}
	w := newFakeWarehouse()

	if n := runStage(t, NewKeywordStage(zerolog.Nop()), store, w); n != 2 {
		t.Fatalf("expected 2 rows written, got %d", n)
	}
	got := rowsOf[db.Keyword](w, db.TableKeyword)
	want := []db.Keyword{{KeywordPK: 0, Keyword: normalize.Missing}, {KeywordPK: 1, Keyword: "climate"}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	if n := runStage(t, NewKeywordStage(zerolog.Nop()), store, w); n != 0 {
		t.Fatalf("expected an empty delta on rerun, got %d rows", n)
	}
}

const referencesHeader = "citekey,authors,title,year,pages,journal,volume,issue,publisher,place"

func authorStageAt(day time.Time) *AuthorStage {
	s := NewAuthorStage(zerolog.Nop())
	s.today = func() time.Time { return day }
	return s
}

func currentRows(rows []db.Author, key author.NaturalKey) []db.Author {
	var out []db.Author
	for _, r := range rows {
		if r.CurrentRowIndicator == author.Current && r.Surname == key.Surname && r.Firstname == key.Firstname && r.Middlename == key.Middlename {
			out = append(out, r)
		}
	}
	return out
}

func TestAuthorStageVersionsAndEmailOverwrite(t *testing.T) {
	t.Parallel()

	const header = "article_id,fullname,email,departments,institutions,countries"
	refs := csvLines(referencesHeader, `ref1,"Smith, John",T,2001,,,,,,`)
	w := newFakeWarehouse()
	jane := author.NaturalKey{Surname: "Doe", Firstname: "Jane", Middlename: normalize.Missing}

	first := memStore{
		source.AuthorsFile:    csvLines(header, `a1,"Doe, Jane",jane@old.org,Physics,MIT,USA`),
		source.ReferencesFile: refs,
	}
	if n := runStage(t, authorStageAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), first, w); n != 3 {
		t.Fatalf("expected dummy plus 2 authors, got %d", n)
	}
	rows := rowsOf[db.Author](w, db.TableAuthor)
	if rows[0].AuthorPK != 0 || rows[1].Surname != "Doe" || rows[1].AuthorPK != 1 || rows[2].Surname != "Smith" || rows[2].AuthorPK != 2 {
		t.Fatalf("unexpected first load: %+v", rows)
	}

	// Department and email change together: a new version carries the new email.
	changeDay := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	second := memStore{
		source.AuthorsFile:    csvLines(header, `a1,"Doe, Jane",jane@new.org,Chemistry,MIT,USA`),
		source.ReferencesFile: refs,
	}
	if n := runStage(t, authorStageAt(changeDay), second, w); n != 2 {
		t.Fatalf("expected expire plus insert, got %d", n)
	}
	if len(w.statements) != 1 || w.statements[0] != ExpireAuthorSQL {
		t.Fatalf("expected only the expire statement, got %v", w.statements)
	}
	rows = rowsOf[db.Author](w, db.TableAuthor)
	if rows[1].CurrentRowIndicator != author.Expired || !rows[1].RowExpirationDate.Equal(changeDay) {
		t.Fatalf("expected row 1 expired on %v, got %+v", changeDay, rows[1])
	}
	current := currentRows(rows, jane)
	if len(current) != 1 || current[0].AuthorPK != 3 || current[0].Email != "jane@new.org" || current[0].Department != "Chemistry" {
		t.Fatalf("expected one current version with key 3, got %+v", current)
	}

	third := memStore{
		source.AuthorsFile:    csvLines(header, `a1,"Doe, Jane",jane@third.org,Chemistry,MIT,USA`),
		source.ReferencesFile: refs,
	}
	if n := runStage(t, authorStageAt(changeDay.AddDate(0, 1, 0)), third, w); n != 1 {
		t.Fatalf("expected one email overwrite, got %d", n)
	}
	if last := w.statements[len(w.statements)-1]; last != OverwriteEmailSQL {
		t.Fatalf("expected email overwrite, got %q", last)
	}
	current = currentRows(rowsOf[db.Author](w, db.TableAuthor), jane)
	if len(current) != 1 || current[0].AuthorPK != 3 || current[0].Email != "jane@third.org" {
		t.Fatalf("expected email overwritten in place, got %+v", current)
	}
	if got := len(rowsOf[db.Author](w, db.TableAuthor)); got != 4 {
		t.Fatalf("expected 4 author rows, got %d", got)
	}
}

func TestJournalStageDropsBlankRows(t *testing.T) {
	t.Parallel()

	store := memStore{
		source.PapersFile: csvLines(
			"article_id,citekey,title,abstract,year,pages,journal,volume,issue,publisher,place",
			"a1,doe2020,T,A,2020,10,Journal of Data,XIV,2,ACM,New York",
			"a2,roe2021,T2,A2,2021,5,,,,,",
		),
		source.ReferencesFile: csvLines(referencesHeader, `smith2001,"Smith, John",Old,2001,1-11,Ref Journal,3,1,IEEE,Boston`),
	}
	w := newFakeWarehouse()
	if n := runStage(t, NewJournalStage(zerolog.Nop()), store, w); n != 3 {
		t.Fatalf("expected dummy plus 2 journals, got %d", n)
	}
	got := rowsOf[db.Journal](w, db.TableJournal)
	want := []db.Journal{
		{JournalPK: 0, Title: normalize.Missing, Publisher: normalize.Missing, Place: normalize.Missing},
		{JournalPK: 1, Title: "Journal of Data", Volume: 14, Issue: 2, Publisher: "ACM", Place: "New York"},
		{JournalPK: 2, Title: "Ref Journal", Volume: 3, Issue: 1, Publisher: "IEEE", Place: "Boston"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func paperPipelineStore() memStore {
	return memStore{
		source.KeywordsFile: csvLines("article_id,keyword", "a1,Climate"),
		source.AuthorsFile: csvLines(
			"article_id,fullname,email,departments,institutions,countries",
			`a1,"Doe, Jane",jane@x.org,Physics,MIT,USA`,
		),
		source.PapersFile: csvLines(
			"article_id,citekey,title,abstract,year,pages,journal,volume,issue,publisher,place",
			"a1,doe2020,Warehouses,An abstract,2020,10,Journal of Data,XIV,2,ACM,New York",
		),
		source.ReferencesFile: csvLines(referencesHeader, `smith2001,"Smith, John",Old Paper,2001,1-11,Ref Journal,3,1,IEEE,Boston`),
	}
}

func TestPaperStageBuildsGroupsAndBridges(t *testing.T) {
	t.Parallel()

	store := paperPipelineStore()
	w := newFakeWarehouse()
	for _, stage := range []Stage{
		NewKeywordStage(zerolog.Nop()),
		authorStageAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		NewJournalStage(zerolog.Nop()),
	} {
		runStage(t, stage, store, w)
	}

	if n := runStage(t, NewPaperStage(zerolog.Nop()), store, w); n == 0 {
		t.Fatalf("expected paper rows to be written")
	}
	papers := rowsOf[db.Paper](w, db.TablePaper)
	if len(papers) != 3 {
		t.Fatalf("expected dummy plus 2 papers, got %+v", papers)
	}
	doe, smith := papers[1], papers[2]
	if doe.Citekey != "doe2020" || doe.PaperPK != 1 || doe.JournalPK != 1 || doe.AuthorgroupPK != 1 || doe.KeywordgroupPK != 1 || doe.NoOfPages != 10 {
		t.Fatalf("unexpected article paper: %+v", doe)
	}
	if doe.Year.Year() != 2020 {
		t.Fatalf("expected year 2020, got %v", doe.Year)
	}
	if smith.Citekey != "smith2001" || smith.PaperPK != 2 || smith.JournalPK != 2 || smith.AuthorgroupPK != 2 || smith.NoOfPages != 10 {
		t.Fatalf("unexpected reference paper: %+v", smith)
	}

	authorBridges := rowsOf[db.BridgePaperAuthor](w, db.TableBridgePaperAuthor)
	wantAuthors := []db.BridgePaperAuthor{{}, {AuthorgroupPK: 1, AuthorPK: 1, AuthorPosition: 1}, {AuthorgroupPK: 2, AuthorPK: 2, AuthorPosition: 1}}
	if len(authorBridges) != len(wantAuthors) {
		t.Fatalf("expected %v, got %v", wantAuthors, authorBridges)
	}
	for i := range wantAuthors {
		if authorBridges[i] != wantAuthors[i] {
			t.Fatalf("author bridge %d: expected %+v, got %+v", i, wantAuthors[i], authorBridges[i])
		}
	}
	keywordBridges := rowsOf[db.BridgePaperKeyword](w, db.TableBridgePaperKeyword)
	wantKeywords := []db.BridgePaperKeyword{{}, {KeywordgroupPK: 1, KeywordPK: 1}, {KeywordgroupPK: 2, KeywordPK: 0}}
	for i := range wantKeywords {
		if keywordBridges[i] != wantKeywords[i] {
			t.Fatalf("keyword bridge %d: expected %+v, got %+v", i, wantKeywords[i], keywordBridges[i])
		}
	}

	if n := runStage(t, NewPaperStage(zerolog.Nop()), store, w); n != 0 {
		t.Fatalf("expected no rows on rerun, got %d", n)
	}
}

func TestPaperStageRollsBackOnIntegrityError(t *testing.T) {
	t.Parallel()

	store := paperPipelineStore()
	w := newFakeWarehouse()
	w.failAppend[db.TableBridgePaperAuthor] = fmt.Errorf("append: %w", db.ErrIntegrity)

	if n := runStage(t, NewPaperStage(zerolog.Nop()), store, w); n != 0 {
		t.Fatalf("expected nothing written, got %d", n)
	}
	if got := rowsOf[db.Paper](w, db.TablePaper); len(got) != 0 {
		t.Fatalf("expected papers rolled back, got %+v", got)
	}

	w.failAppend[db.TableBridgePaperAuthor] = errors.New("connection reset")
	stage := NewPaperStage(zerolog.Nop())
	if err := stage.Load(context.Background(), store, w); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := stage.Write(context.Background(), w); err == nil {
		t.Fatalf("expected non-integrity error to propagate")
	}
}

func TestParagraphStageResolvesPapers(t *testing.T) {
	t.Parallel()

	w := newFakeWarehouse()
	w.tables[db.TablePaper] = []db.Paper{{PaperPK: 0, ArticleSourceID: normalize.Missing}, {PaperPK: 7, ArticleSourceID: "a1"}}
	store := memStore{source.ParagraphsFile: csvLines(
		"para_id,article_id,last_section_title,last_subsection_title,paragraph_type",
		"12,a1,Method,,BODY",
		"3,zz,,,",
	)}
	if n := runStage(t, NewParagraphStage(zerolog.Nop()), store, w); n != 3 {
		t.Fatalf("expected dummy plus 2 paragraphs, got %d", n)
	}
	got := rowsOf[db.Paragraph](w, db.TableParagraph)
	if got[0].ParaSourceID != "0" || got[0].Heading != normalize.Missing {
		t.Fatalf("unexpected dummy paragraph: %+v", got[0])
	}
	if got[1].ParaSourceID != "3" || got[1].ParagraphPK != 1 || got[1].PaperPK != 0 || got[1].Heading != normalize.Missing {
		t.Fatalf("unexpected paragraph 1: %+v", got[1])
	}
	if got[2].ParaSourceID != "12" || got[2].ParagraphPK != 2 || got[2].PaperPK != 7 || got[2].Heading != "Method" || got[2].Subheading != normalize.Missing {
		t.Fatalf("unexpected paragraph 2: %+v", got[2])
	}
}

func TestSentenceStageCitationGroups(t *testing.T) {
	t.Parallel()

	w := newFakeWarehouse()
	w.tables[db.TablePaper] = []db.Paper{{PaperPK: 0, Citekey: normalize.Missing}, {PaperPK: 1, Citekey: "doe2020"}}
	w.tables[db.TableParagraph] = []db.Paragraph{{ParagraphPK: 0, ParaSourceID: "0"}, {ParagraphPK: 1, ParaSourceID: "p1"}}
	store := memStore{
		source.SentencesFile: csvLines(
			"sentence_id,para_id,sentence,sentence_type",
			"10,p1,First sentence.,ABSTRACT",
			"2,p1,Second START_CITE x END_CITE,BODY",
			"3,p1,   ,BODY",
			"4,p1,Table 1,TABLE",
		),
		source.CitationsFile: csvLines("sentence_id,reference_citekey", "2,doe2020", "2,unknown2000"),
	}
	stage := NewSentenceStage(zerolog.Nop())
	runStage(t, stage, store, w)

	sentences := rowsOf[db.Sentence](w, db.TableSentence)
	if len(sentences) != 3 {
		t.Fatalf("expected dummy plus 2 sentences, got %+v", sentences)
	}
	if sentences[1].SentenceSourceID != "2" || sentences[1].SentencePK != 1 || sentences[1].CitationgroupPK != 1 || sentences[1].ParagraphPK != 1 {
		t.Fatalf("unexpected sentence 1: %+v", sentences[1])
	}
	if sentences[2].SentenceSourceID != "10" || sentences[2].SentencePK != 2 || sentences[2].CitationgroupPK != 2 {
		t.Fatalf("unexpected sentence 2: %+v", sentences[2])
	}

	bridges := rowsOf[db.BridgeSentenceCitation](w, db.TableBridgeSentenceCitation)
	want := []db.BridgeSentenceCitation{{}, {CitationgroupPK: 1, PaperPK: 1}, {CitationgroupPK: 1, PaperPK: 0}, {CitationgroupPK: 2, PaperPK: 0}}
	if len(bridges) != len(want) {
		t.Fatalf("expected %v, got %v", want, bridges)
	}
	for i := range want {
		if bridges[i] != want[i] {
			t.Fatalf("bridge %d: expected %+v, got %+v", i, want[i], bridges[i])
		}
	}
	if groups := rowsOf[db.CitationGroup](w, db.TableCitationGroup); len(groups) != 3 {
		t.Fatalf("expected groups 0, 1 and 2, got %+v", groups)
	}
}

const entitiesExtract = "sentence_id,ent_id,label,ent_path\n" +
	"2,A,TOPIC,A\n" +
	"2,B,TOPIC,A/B\n" +
	"10,C,TOPIC,A/B/C\n" +
	"10,C,TOPIC,A/B/C\n" +
	"10,Z,TOPIC,Q/Z\n" +
	"99,A,TOPIC,A\n"

func TestEntityStageKeepsStoredParentsOffLeaves(t *testing.T) {
	t.Parallel()

	w := newFakeWarehouse()
	first := memStore{source.EntitiesFile: "sentence_id,ent_id,label,ent_path\n1,A,TOPIC,A\n1,B,TOPIC,A/B\n"}
	runStage(t, NewEntityStage(zerolog.Nop()), first, w)

	second := memStore{source.EntitiesFile: "sentence_id,ent_id,label,ent_path\n2,R,TOPIC,R\n2,A,TOPIC,R/A\n"}
	stage := NewEntityStage(zerolog.Nop())
	if n := runStage(t, stage, second, w); n != 3 {
		t.Fatalf("expected one entity and two edges, got %d", n)
	}
	for _, e := range stage.Edges() {
		if e.LowestChildFlag {
			t.Fatalf("edge %d->%d flagged lowest child", e.ParentEntityPK, e.ChildEntityPK)
		}
	}
}

func TestEntityStageBuildsHierarchy(t *testing.T) {
	t.Parallel()

	store := memStore{source.EntitiesFile: entitiesExtract}
	w := newFakeWarehouse()
	stage := NewEntityStage(zerolog.Nop())
	runStage(t, stage, store, w)

	entities := rowsOf[db.Entity](w, db.TableEntity)
	wantNames := []string{normalize.Missing, "A", "B", "C", "Z"}
	if len(entities) != len(wantNames) {
		t.Fatalf("expected %v, got %+v", wantNames, entities)
	}
	for i, name := range wantNames {
		if entities[i].EntityName != name || entities[i].EntityPK != int64(i) {
			t.Fatalf("entity %d: expected %s, got %+v", i, name, entities[i])
		}
	}

	if got := len(stage.Dropped()); got != 2 {
		t.Fatalf("expected the two Q edges dropped, got %d", got)
	}
	edges := rowsOf[db.EntityHierarchy](w, db.TableEntityHierarchy)
	want := []db.EntityHierarchy{
		{ParentEntityPK: 1, ChildEntityPK: 1, DepthFromParent: 0, HighestParentFlag: true},
		{ParentEntityPK: 1, ChildEntityPK: 2, DepthFromParent: 1, HighestParentFlag: true},
		{ParentEntityPK: 2, ChildEntityPK: 2, DepthFromParent: 0},
		{ParentEntityPK: 1, ChildEntityPK: 3, DepthFromParent: 2, HighestParentFlag: true, LowestChildFlag: true},
		{ParentEntityPK: 2, ChildEntityPK: 3, DepthFromParent: 1, LowestChildFlag: true},
		{ParentEntityPK: 3, ChildEntityPK: 3, DepthFromParent: 0, LowestChildFlag: true},
		{ParentEntityPK: 4, ChildEntityPK: 4, DepthFromParent: 0, LowestChildFlag: true},
	}
	if len(edges) != len(want) {
		t.Fatalf("expected %d edges, got %+v", len(want), edges)
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Fatalf("edge %d: expected %+v, got %+v", i, want[i], edges[i])
		}
	}

	if n := runStage(t, NewEntityStage(zerolog.Nop()), store, w); n != 0 {
		t.Fatalf("expected no rows on rerun, got %d", n)
	}
}

func TestFactStageCountsMentions(t *testing.T) {
	t.Parallel()

	store := memStore{source.EntitiesFile: entitiesExtract}
	w := newFakeWarehouse()
	runStage(t, NewEntityStage(zerolog.Nop()), store, w)
	w.tables[db.TableSentence] = []db.Sentence{
		{SentencePK: 0, SentenceSourceID: "0"},
		{SentencePK: 1, SentenceSourceID: "2"},
		{SentencePK: 2, SentenceSourceID: "10"},
	}
	w.tables[db.TableEntityDetectionFact] = []db.EntityDetection{{EntityPK: 3, SentencePK: 2, EntityCount: 5}}

	stage := NewFactStage(zerolog.Nop())
	if n := runStage(t, stage, store, w); n != 3 {
		t.Fatalf("expected 3 facts, got %d", n)
	}
	want := []db.EntityDetection{
		{EntityPK: 1, SentencePK: 1, EntityCount: 1},
		{EntityPK: 2, SentencePK: 1, EntityCount: 1},
		{EntityPK: 4, SentencePK: 2, EntityCount: 1},
	}
	got := stage.Rows()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fact %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestAggregationStageVotesPerPaper(t *testing.T) {
	t.Parallel()

	stage, err := NewStage("aggregation", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStage: %v", err)
	}
	w := newFakeWarehouse()
	w.tables[db.TablePaper] = []db.Paper{{PaperPK: 0, Citekey: normalize.Missing}, {PaperPK: 1, Citekey: "doe2020"}}
	w.query = func(query string, dest any) error {
		if query != MentionsSQL {
			return fmt.Errorf("unexpected query %q", query)
		}
		*dest.(*[]mentionRow) = []mentionRow{
			{PaperPK: 1, SentencePK: 1, EntityPK: 1, EntityLabel: "TOPIC", EntityName: "X", EntityCount: 1},
			{PaperPK: 1, SentencePK: 1, EntityPK: 2, EntityLabel: "TOPIC", EntityName: "Y", EntityCount: 1},
			{PaperPK: 1, SentencePK: 2, EntityPK: 1, EntityLabel: "TOPIC", EntityName: "X", EntityCount: 1},
			{PaperPK: 1, SentencePK: 2, EntityPK: 2, EntityLabel: "TOPIC", EntityName: "Y", EntityCount: 1},
		}
		return nil
	}

	for range 2 {
		if n := runStage(t, stage, nil, w); n != 2 {
			t.Fatalf("expected one row per paper, got %d", n)
		}
	}
	rows := rowsOf[db.AggPaper](w, db.TableAggPaper)
	if len(rows) != 2 {
		t.Fatalf("expected replace semantics, got %d rows", len(rows))
	}
	if rows[0].Topic != normalize.Missing || rows[0].Level != normalize.Missing || rows[0].NoOfParticipants != 0 {
		t.Fatalf("unexpected dummy aggregate: %+v", rows[0])
	}
	if rows[1].Topic != "X" || rows[1].Citekey != "doe2020" || rows[1].Theory != normalize.Missing {
		t.Fatalf("unexpected aggregate: %+v", rows[1])
	}
}
