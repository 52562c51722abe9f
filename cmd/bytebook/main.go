package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bytebook/internal/config"
	"bytebook/internal/pipeline"
	"bytebook/internal/server"
	"bytebook/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.ListenAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		cfg.ListenAddr = *addr
		must(server.New(db, cfg).Run())

	case "convert":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", cfg.OutputDir, "output directory")
		cnpj := fs.String("cnpj", "", "root identifier (default: configured)")
		split := fs.Bool("split", cfg.SplitLotes, "split output in lotes of 100")
		noDB := fs.Bool("no-db", false, "skip database updates")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() == 0 {
			must(fmt.Errorf("usage: bytebook convert [flags] <file.xlsx|file.csv|file.html>..."))
		}
		runConvert(db, cfg, fs.Args(), *out, *cnpj, *split, !*noDB)

	case "cnpj:list":
		options, err := db.ListCNPJOptions()
		must(err)
		for _, o := range options {
			fmt.Printf("%d\t%s\t%s\n", o.ID, o.Name, o.CpfCnpjRaiz)
		}

	case "cnpj:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "option name")
		raiz := fs.String("raiz", "", "cpf/cnpj raiz")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*name) == "" || strings.TrimSpace(*raiz) == "" {
			must(fmt.Errorf("--name and --raiz are required"))
		}
		id, err := db.InsertCNPJOption(strings.TrimSpace(*name), strings.TrimSpace(*raiz))
		must(err)
		fmt.Printf("added option id=%d\n", id)

	case "cnpj:update":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.Int("id", 0, "option id")
		name := fs.String("name", "", "option name")
		raiz := fs.String("raiz", "", "cpf/cnpj raiz")
		_ = fs.Parse(os.Args[2:])
		if *id == 0 || strings.TrimSpace(*name) == "" || strings.TrimSpace(*raiz) == "" {
			must(fmt.Errorf("--id, --name and --raiz are required"))
		}
		must(db.UpdateCNPJOption(*id, strings.TrimSpace(*name), strings.TrimSpace(*raiz)))
		fmt.Printf("updated option id=%d\n", *id)

	case "cnpj:delete":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.Int("id", 0, "option id")
		_ = fs.Parse(os.Args[2:])
		if *id == 0 {
			must(fmt.Errorf("--id is required"))
		}
		must(db.DeleteCNPJOption(*id))
		fmt.Printf("deleted option id=%d\n", *id)

	case "parts:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", filepath.Join(cfg.OutputDir, "base_de_pecas.xlsx"), "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		parts, err := db.ListParts()
		must(err)
		blob, err := pipeline.PartsXLSX(parts)
		must(err)
		must(os.MkdirAll(filepath.Dir(*out), 0o755))
		must(os.WriteFile(*out, blob, 0o644))
		fmt.Printf("exported %d parts to %s\n", len(parts), *out)

	case "db:load":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		target := fs.String("table", "", "destination table")
		_ = fs.Parse(os.Args[2:])
		if *target == "" || fs.NArg() == 0 {
			must(fmt.Errorf("usage: bytebook db:load --table=<name> <file.xlsx|file.csv>"))
		}
		processor := pipeline.NewProcessor(db, cfg)
		for _, input := range fs.Args() {
			blob, err := os.ReadFile(input)
			must(err)
			outcome, err := processor.LoadFile(*target, input, blob)
			must(err)
			if len(outcome.IgnoredColumns) > 0 {
				fmt.Fprintf(os.Stderr, "warning: ignored columns not in %s: %s\n",
					*target, strings.Join(outcome.IgnoredColumns, ", "))
			}
			fmt.Printf("%s: %d rows read, %d new records in %s\n",
				input, outcome.Rows, outcome.Inserted, *target)
		}

	case "db:query":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() == 0 {
			must(fmt.Errorf("usage: bytebook db:query \"<sql>\""))
		}
		sqlText := strings.Join(fs.Args(), " ")
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(sqlText)), "select") {
			cols, rows, err := db.Query(sqlText)
			must(err)
			fmt.Println(strings.Join(cols, "\t"))
			for _, row := range rows {
				fmt.Println(strings.Join(row, "\t"))
			}
		} else {
			n, err := db.Exec(sqlText)
			must(err)
			fmt.Printf("ok, %d rows affected\n", n)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func runConvert(db *storage.DB, cfg config.Config, inputs []string, outDir, cnpj string, split, persist bool) {
	processor := pipeline.NewProcessor(db, cfg)
	opts := pipeline.Options{CpfCnpjRaiz: cnpj, Persist: persist}

	total := 0
	for _, input := range inputs {
		blob, err := os.ReadFile(input)
		must(err)
		outcomes, err := processor.ProcessFile(input, blob, opts)
		must(err)

		for _, o := range outcomes {
			if o.Err != nil {
				fmt.Fprintf(os.Stderr, "skipped %s / %s: %v\n", o.File, o.Sheet, o.Err)
				continue
			}
			if o.PersistErr != nil {
				fmt.Fprintf(os.Stderr, "warning: %s / %s: %v (files still written)\n", o.File, o.Sheet, o.PersistErr)
			}
			if o.DuplicatesDropped > 0 {
				fmt.Fprintf(os.Stderr, "warning: %s / %s: %d duplicated part numbers, kept first occurrence\n",
					o.File, o.Sheet, o.DuplicatesDropped)
			}

			files, err := pipeline.LoteFiles(o.Key, o.Records, split, cfg.LoteSize)
			must(err)
			must(os.MkdirAll(outDir, 0o755))
			for _, f := range files {
				must(os.WriteFile(filepath.Join(outDir, f.Name), f.Data, 0o644))
			}
			total += len(files)

			fmt.Printf("%s / %s: %d records, %d files", o.File, o.Sheet, len(o.Records), len(files))
			if o.Persisted {
				fmt.Printf(", db: +%d parts +%d attributes +%d associations",
					o.NewParts, o.NewAttributes, o.NewAssociations)
			}
			fmt.Println()
		}
	}
	fmt.Printf("convert done, %d files in %s\n", total, outDir)
}

func usage() {
	fmt.Println("usage: bytebook <command>")
	fmt.Println("commands:")
	fmt.Println("  serve [--addr=:8080]")
	fmt.Println("  convert [--out=./out] [--cnpj=...] [--split=true] [--no-db] <files...>")
	fmt.Println("  cnpj:list")
	fmt.Println("  cnpj:add --name=... --raiz=...")
	fmt.Println("  cnpj:update --id=1 --name=... --raiz=...")
	fmt.Println("  cnpj:delete --id=1")
	fmt.Println("  parts:export [--out=./out/base_de_pecas.xlsx]")
	fmt.Println("  db:load --table=<name> <files...>")
	fmt.Println("  db:query \"SELECT ...\"")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
