package service_test

import (
	"github.com/petgully/tally/internal/service"
	"github.com/petgully/tally/internal/sheets"
	"github.com/petgully/tally/internal/storage"
)

// The command layer depends on these contracts; keep the concrete types
// honest about satisfying them.
var (
	_ service.Storage      = (*storage.SQLiteStorage)(nil)
	_ service.ReportWriter = (*sheets.Writer)(nil)
)
