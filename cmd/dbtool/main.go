package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jacksonlee411/governance-adjudicator/migrations"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/infrastructure/persistence"
	"github.com/jacksonlee411/governance-adjudicator/pkg/uuidv7"
)

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: dbtool <migrate|smoke> [args]")
	}

	switch os.Args[1] {
	case "migrate":
		migrate(os.Args[2:])
	case "smoke":
		smoke(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

func databaseURL(fs *flag.FlagSet, args []string) (string, []string) {
	var url string
	fs.StringVar(&url, "url", os.Getenv("DATABASE_URL"), "postgres connection string (default $DATABASE_URL)")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url")
	}
	return url, fs.Args()
}

func migrationCommand(rest []string) (string, error) {
	if len(rest) == 0 {
		return "up", nil
	}
	if len(rest) > 1 {
		return "", errors.New("expected a single command")
	}
	switch rest[0] {
	case "up", "down", "status":
		return rest[0], nil
	default:
		return "", fmt.Errorf("unknown migrate command: %s", rest[0])
	}
}

func migrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	url, rest := databaseURL(fs, args)
	command, err := migrationCommand(rest)
	if err != nil {
		fatal(err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		fatal(err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		fatal(err)
	}

	switch command {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	}
	if err != nil {
		fatal(err)
	}
	fmt.Printf("[migrate %s] OK\n", command)
}

// smoke writes evidence through the real store inside a transaction that is
// always rolled back.
func smoke(args []string) {
	fs := flag.NewFlagSet("smoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	url, _ := databaseURL(fs, args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fatal(err)
	}
	defer conn.Close(context.Background())

	tx, err := conn.Begin(ctx)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	store := persistence.NewEvidencePGStore(tx)
	now := time.Now().UTC().Truncate(time.Microsecond)
	first := smokeEvidence(now)
	if _, err := store.InsertEvidence(ctx, first); err != nil {
		fatalPg(err)
	}
	second := smokeEvidence(now.Add(time.Second))
	superseded, err := store.InsertEvidence(ctx, second)
	if err != nil {
		fatalPg(err)
	}
	if len(superseded) != 1 || superseded[0] != first.EvidenceID {
		fatalf("expected %s superseded, got %v", first.EvidenceID, superseded)
	}

	got, found, err := store.FindEvidenceForClaim(ctx, second.EvidenceID)
	if err != nil {
		fatalPg(err)
	}
	if !found || got.Status != types.EvidenceStatusActive || got.URI != second.URI {
		fatalf("unexpected read back: found=%v evidence=%+v", found, got)
	}

	revoked, err := store.RevokeEvidence(ctx, second.EvidenceID, now.Add(time.Minute))
	if err != nil {
		fatalPg(err)
	}
	if revoked.Status != types.EvidenceStatusRevoked || revoked.RevokedAt == nil {
		fatalf("unexpected revoke result: %+v", revoked)
	}

	fmt.Println("[smoke] OK")
}

func smokeEvidence(at time.Time) types.Evidence {
	id, err := uuidv7.NewStringAt(at)
	if err != nil {
		fatal(err)
	}
	return types.Evidence{
		EvidenceID:      id,
		AppID:           "dbtool-smoke",
		ProfileFieldKey: "encryption_at_rest",
		Type:            "doc",
		URI:             "smoke://" + id,
		ValidFrom:       at,
		Status:          types.EvidenceStatusActive,
		CreatedAt:       at,
	}
}

func fatalPg(err error) {
	if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok {
		fatalf("postgres %s: %s", pgErr.Code, pgErr.Message)
	}
	fatal(err)
}

func fatal(err error) {
	if err == nil {
		os.Exit(1)
	}
	fatalf("%v", err)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
