package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/NaiduBugata/vema-society-sub001/internal/config"
	"github.com/NaiduBugata/vema-society-sub001/internal/database"
	"github.com/NaiduBugata/vema-society-sub001/internal/reconcile"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
	"github.com/NaiduBugata/vema-society-sub001/internal/sheet"
)

// Command-line entry point for reconciling a workbook without going
// through the HTTP server, e.g. for backfilling historical months.
func main() {
	filePath := flag.String("file", "", "Path to the .xlsx workbook")
	month := flag.String("month", "", "Ledger month (YYYY-MM); detected from the sheet when omitted")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("usage: import -file payroll.xlsx [-month YYYY-MM]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := config.NewLogger(cfg)

	db, err := database.NewConnection(cfg, logger)
	if err != nil {
		logger.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()

	ds, err := sheet.ReadXLSXFile(*filePath)
	if err != nil {
		logger.Fatalf("Error reading workbook: %v", err)
	}

	employees := repositories.NewEmployeeRepository(db)
	loans := repositories.NewLoanRepository(db)
	transactions := repositories.NewTransactionRepository(db)
	uploadLogs := repositories.NewUploadLogRepository(db)

	reconciler := reconcile.NewReconciler(employees, loans, transactions, logger)
	orchestrator := reconcile.NewOrchestrator(reconciler, uploadLogs, logger)

	result, err := orchestrator.Run(ds, *month)
	if err != nil {
		logger.Fatalf("Batch failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatalf("Failed to encode result: %v", err)
	}
}
