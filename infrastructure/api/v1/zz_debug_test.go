package v1_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/gimlabs/gim/domain/issue"
	dsearch "github.com/gimlabs/gim/domain/search"
	"github.com/gimlabs/gim/domain/vector"
	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/infrastructure/provider"
	isearch "github.com/gimlabs/gim/infrastructure/search"
)

func TestDebugSearchLegs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db := openTestDB(t, dbPath)
	ctx := context.Background()

	repoStore := persistence.NewRepoStore(db)
	_ = repoStore.UpsertAll(ctx, []issue.Repository{
		issue.NewRepository("R_ws", "acme/gadget", "Go", []string{"networking"}, 4200),
		issue.NewRepository("R_py", "acme/snake", "Python", []string{"data"}, 900),
	})
	local := provider.NewLocalProvider(vector.Dim)
	issueStore := persistence.NewIssueStore(db)
	now := time.Now().UTC()
	for _, iss := range []issue.Issue{
		corpusIssue("I_ws", "R_ws", "memory leak in websocket server", "heap grows with every reconnect", []string{"bug"}),
		corpusIssue("I_retry", "R_ws", "retry storm after broker restart", "clients hammer the endpoint when the stream drops", []string{"bug", "help wanted"}),
		corpusIssue("I_py", "R_py", "dataframe groupby drops timezone", "aggregation loses tzinfo on datetime columns", []string{"pandas"}),
	} {
		resp, _ := local.Embed(ctx, provider.NewEmbeddingRequest([]string{iss.EmbedText()}))
		if err := issueStore.Upsert(ctx, iss.WithEmbedding(resp.Embeddings()[0], now)); err != nil {
			t.Fatal(err)
		}
	}

	q := "memory leak in websocket server"
	lex := isearch.NewSQLiteLexicalStore(db, nil)
	lexRes, err := lex.Search(ctx, dsearch.WithQuery(q))
	fmt.Println("lexical err:", err)
	for _, r := range lexRes {
		fmt.Printf("  lex %s %.2f\n", r.NodeID(), r.Score())
	}

	vec := isearch.NewSQLiteVectorStore(db, nil)
	qe, _ := local.Embed(ctx, provider.NewEmbeddingRequest([]string{q}))
	vecRes, err := vec.Search(ctx, dsearch.WithEmbedding(qe.Embeddings()[0]))
	fmt.Println("vector err:", err)
	for _, r := range vecRes {
		fmt.Printf("  vec %s %.4f\n", r.NodeID(), r.Score())
	}

	fusion := dsearch.NewFusion()
	for _, fr := range fusion.Fuse(vecRes, lexRes) {
		fmt.Printf("  fused %s %.5f\n", fr.ID(), fr.Score())
	}
	_ = db.Close()
}
