package db

type Database interface {
	Close() error
	EnsureDatabaseExists() error
	CreateTables() error
	DropTables() error

	Exec(query string, args ...any) error
	InsertReport(rows *ReportRows) error
	InsertArbitrages(rows []*ArbitrageRow) error
	InsertSandwiches(rows []*SandwichRow) error
	InsertJitSandwiches(rows []*JitSandwichRow) error
	InsertLiquidations(rows []*LiquidationRow) error
	InsertNftArbitrages(rows []*NftArbitrageRow) error
	InsertPureArbitrages(rows []*PureArbitrageRow) error
	RecordProcessedBlocks(blocks []*ProcessedBlock) error

	// QueryLastProcessedBlock returns false when source never processed a block.
	QueryLastProcessedBlock(source string) (uint64, bool, error)
	QueryDetectionCount(table string, fromBlock, toBlock uint64) (uint64, error)
}
