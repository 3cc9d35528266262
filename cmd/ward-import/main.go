package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	csvPath     = flag.String("csv", "", "Path to the ward directory CSV (required)")
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to write to the database")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key (e.g., 424242). 0 = disabled")
)

// CSV contract
// ward_number,ward_name,admin_name,admin_phone,admin_email,office_address,office_timing,zone
// Rows upsert by ward_number so existing ward ids (and ticket references) survive.

type WardCSV struct {
	WardNumber    string
	WardName      string
	AdminName     string
	AdminPhone    string
	AdminEmail    string
	OfficeAddress string
	OfficeTiming  string
	Zone          string
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *csvPath == "" {
		fatalf("--csv is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	rows, err := loadCSV(*csvPath)
	if err != nil {
		fatalf("CSV error: %v", err)
	}

	if err := validateRows(rows); err != nil {
		fatalf("CSV validation failed: %v", err)
	}

	fmt.Printf("Loaded %d wards from %s\n", len(rows), *csvPath)

	if *dryRun {
		printPlan(rows)
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	// Optional advisory lock to avoid concurrent runs
	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	var before int64
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM admin.wards`).Scan(&before); err != nil {
		fatalf("pre-count: %v", err)
	}
	fmt.Printf("Before: wards=%d\n", before)

	inserted, updated, err := upsertAll(ctx, tx, rows)
	if err != nil {
		fatalf("upsert wards: %v", err)
	}

	var after int64
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM admin.wards`).Scan(&after); err != nil {
		fatalf("post-count: %v", err)
	}
	fmt.Printf("After:  wards=%d (inserted=%d updated=%d)\n", after, inserted, updated)

	// sanity: every CSV row landed
	if after < int64(len(rows)) {
		fatalf("sanity check failed: wards=%d but CSV has %d rows", after, len(rows))
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Ward import complete ✅")
}

func loadCSV(path string) ([]WardCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	r := csv.NewReader(br)
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	required := []string{"ward_number", "ward_name", "admin_name", "admin_phone", "admin_email", "office_address", "office_timing", "zone"}
	for _, k := range required {
		if _, ok := idx[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	var out []WardCSV
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}

		out = append(out, WardCSV{
			WardNumber:    strings.TrimSpace(rec[idx["ward_number"]]),
			WardName:      strings.TrimSpace(rec[idx["ward_name"]]),
			AdminName:     strings.TrimSpace(rec[idx["admin_name"]]),
			AdminPhone:    strings.TrimSpace(rec[idx["admin_phone"]]),
			AdminEmail:    strings.TrimSpace(rec[idx["admin_email"]]),
			OfficeAddress: strings.TrimSpace(rec[idx["office_address"]]),
			OfficeTiming:  strings.TrimSpace(rec[idx["office_timing"]]),
			Zone:          strings.TrimSpace(rec[idx["zone"]]),
		})
	}
	return out, nil
}

func validateRows(rows []WardCSV) error {
	if len(rows) == 0 {
		return fmt.Errorf("CSV has no data rows")
	}
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		if r.WardNumber == "" {
			return fmt.Errorf("row %d: ward_number is empty", i+2)
		}
		if r.WardName == "" {
			return fmt.Errorf("row %d: ward_name is empty", i+2)
		}
		if _, dup := seen[r.WardNumber]; dup {
			return fmt.Errorf("row %d: duplicate ward_number '%s'", i+2, r.WardNumber)
		}
		seen[r.WardNumber] = struct{}{}
	}
	return nil
}

func printPlan(rows []WardCSV) {
	zones := map[string]struct{}{}
	for _, r := range rows {
		if r.Zone != "" {
			zones[r.Zone] = struct{}{}
		}
	}
	fmt.Println("Plan preview:")
	fmt.Printf("  Wards to upsert: %d\n", len(rows))
	fmt.Printf("  Distinct zones: %d\n", len(zones))
	fmt.Println("  Tables affected: admin.wards (upsert by ward_number, no deletes)")
}

func upsertAll(ctx context.Context, tx *sql.Tx, rows []WardCSV) (inserted, updated int64, err error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO admin.wards
			(ward_number, ward_name, admin_name, admin_phone, admin_email, office_address, office_timing, zone, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
		ON CONFLICT (ward_number) DO UPDATE SET
			ward_name = EXCLUDED.ward_name,
			admin_name = EXCLUDED.admin_name,
			admin_phone = EXCLUDED.admin_phone,
			admin_email = EXCLUDED.admin_email,
			office_address = EXCLUDED.office_address,
			office_timing = EXCLUDED.office_timing,
			zone = EXCLUDED.zone,
			updated_at = now()
		RETURNING (xmax = 0)`)
	if err != nil {
		return 0, 0, err
	}
	defer stmt.Close()

	for _, r := range rows {
		var wasInsert bool
		err := stmt.QueryRowContext(ctx,
			r.WardNumber, r.WardName, r.AdminName, r.AdminPhone, r.AdminEmail,
			r.OfficeAddress, r.OfficeTiming, r.Zone,
		).Scan(&wasInsert)
		if err != nil {
			return inserted, updated, fmt.Errorf("upsert ward '%s': %w", r.WardNumber, err)
		}
		if wasInsert {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
