package db

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/spf13/viper"

	"mevwatcher/config"
	"mevwatcher/logger"
)

const (
	TableArbitrages      = "arbitrages"
	TableSandwiches      = "sandwiches"
	TableJitSandwiches   = "jit_sandwiches"
	TableLiquidations    = "liquidations"
	TableNftArbitrages   = "nft_arbitrages"
	TablePureArbitrages  = "pure_arbitrages"
	TableProcessedBlocks = "processed_blocks"
)

var detectionTables = []string{
	TableArbitrages, TableSandwiches, TableJitSandwiches,
	TableLiquidations, TableNftArbitrages, TablePureArbitrages,
}

var _ Database = (*ClickhouseDB)(nil)

type ClickhouseDB struct {
	conn driver.Conn
}

// Configured reports whether a ClickHouse address is set.
func Configured() bool {
	return viper.GetString("CLICKHOUSE_ADDR") != ""
}

func NewClickhouse() (*ClickhouseDB, error) {
	opts := &clickhouse.Options{
		Addr: []string{viper.GetString("CLICKHOUSE_ADDR")},
		Auth: clickhouse.Auth{
			Database: viper.GetString("CLICKHOUSE_DATABASE"),
			Username: viper.GetString("CLICKHOUSE_USERNAME"),
			Password: viper.GetString("CLICKHOUSE_PASSWORD"),
		},
		DialTimeout:  5 * time.Second,
		Compression:  &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		MaxOpenConns: 10,
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &ClickhouseDB{conn: conn}, nil
}

func qualified(table string) string {
	return config.DatabaseName + "." + table
}

// Database interface implementation
func (d *ClickhouseDB) Close() error {
	return d.conn.Close()
}

func (d *ClickhouseDB) EnsureDatabaseExists() error {
	query := `CREATE DATABASE IF NOT EXISTS ` + config.DatabaseName
	if err := d.conn.Exec(context.Background(), query); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}
	logger.GlobalLogger.Info("Database ensured to exist", "database", config.DatabaseName)
	return nil
}

func (d *ClickhouseDB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ` + qualified(TableArbitrages) + `
		(
			blockNumber UInt64,
			txHash String,
			txIndex UInt32,
			taker String,
			profitAsset String,
			startAmount Decimal(76, 0),
			endAmount Decimal(76, 0),
			profit Decimal(76, 0),
			hops UInt16,
			pools Array(String),
			protocols Array(String)
		)
		ENGINE = MergeTree
		ORDER BY (blockNumber, txIndex)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS ` + qualified(TableSandwiches) + `
		(
			blockNumber UInt64,
			sandwicher String,
			pool String,
			frontTx String,
			backTx String,
			victimTxs Array(String),
			victimCount UInt16,
			profitAsset String,
			profit Decimal(76, 0),
			consecutive Bool
		)
		ENGINE = MergeTree
		ORDER BY (blockNumber, frontTx)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS ` + qualified(TableJitSandwiches) + `
		(
			blockNumber UInt64,
			sandwicher String,
			pool String,
			depositTx String,
			withdrawalTx String,
			swapTxs Array(String),
			deltaAssets Array(String),
			deltas Array(Decimal(76, 0))
		)
		ENGINE = MergeTree
		ORDER BY (blockNumber, depositTx)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS ` + qualified(TableLiquidations) + `
		(
			blockNumber UInt64,
			txHash String,
			lendingPool String,
			protocol String,
			liquidator String,
			borrower String,
			debtAsset String,
			debtAmount Decimal(76, 0),
			collateralAsset String,
			collateralAmount Decimal(76, 0)
		)
		ENGINE = MergeTree
		ORDER BY (blockNumber, txHash)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS ` + qualified(TableNftArbitrages) + `
		(
			blockNumber UInt64,
			txHash String,
			collection String,
			tokenId String,
			buyProtocol String,
			sellProtocol String,
			sender String,
			beneficiary String,
			profitAsset String,
			profit Decimal(76, 0)
		)
		ENGINE = MergeTree
		ORDER BY (blockNumber, txHash)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS ` + qualified(TablePureArbitrages) + `
		(
			blockNumber UInt64,
			txHash String,
			searcher String,
			beneficiary String,
			assets Array(String),
			amounts Array(Decimal(76, 0))
		)
		ENGINE = MergeTree
		ORDER BY (blockNumber, txHash)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS ` + qualified(TableProcessedBlocks) + `
		(
			blockNumber UInt64,
			source String,
			detections UInt32,
			processedAt DateTime
		)
		ENGINE = ReplacingMergeTree
		PRIMARY KEY (source, blockNumber)
		ORDER BY (source, blockNumber)
		SETTINGS index_granularity = 8192`,
	}

	for _, q := range queries {
		if err := d.conn.Exec(context.Background(), q); err != nil {
			return err
		}
		logger.GlobalLogger.Info("Check or create table in DB", "query", q)
	}
	return nil
}

func (d *ClickhouseDB) DropTables() error {
	rows, err := d.conn.Query(context.Background(),
		fmt.Sprintf("SHOW TABLES FROM %s", config.DatabaseName))
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, t)
	}

	for _, t := range tables {
		q := fmt.Sprintf("DROP TABLE IF EXISTS %s", qualified(t))
		if err := d.conn.Exec(context.Background(), q); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", t, err)
		}
		logger.GlobalLogger.Info("Dropped table", "table", t)
	}

	return nil
}

func (d *ClickhouseDB) Exec(query string, args ...any) error {
	if err := d.conn.Exec(context.Background(), query, args...); err != nil {
		return err
	}
	return nil
}

func insertRows[T any](conn driver.Conn, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := conn.PrepareBatch(context.Background(), "INSERT INTO "+qualified(table))
	if err != nil {
		return fmt.Errorf("prepare batch for %s failed: %w", table, err)
	}
	for _, r := range rows {
		if err := batch.AppendStruct(r); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append row to %s failed: %w", table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch to %s failed: %w", table, err)
	}
	return nil
}

func (d *ClickhouseDB) InsertReport(rows *ReportRows) error {
	if err := d.InsertArbitrages(rows.Arbitrages); err != nil {
		return err
	}
	if err := d.InsertSandwiches(rows.Sandwiches); err != nil {
		return err
	}
	if err := d.InsertJitSandwiches(rows.JitSandwiches); err != nil {
		return err
	}
	if err := d.InsertLiquidations(rows.Liquidations); err != nil {
		return err
	}
	if err := d.InsertNftArbitrages(rows.NftArbitrages); err != nil {
		return err
	}
	return d.InsertPureArbitrages(rows.PureArbitrages)
}

func (d *ClickhouseDB) InsertArbitrages(rows []*ArbitrageRow) error {
	return insertRows(d.conn, TableArbitrages, rows)
}

func (d *ClickhouseDB) InsertSandwiches(rows []*SandwichRow) error {
	return insertRows(d.conn, TableSandwiches, rows)
}

func (d *ClickhouseDB) InsertJitSandwiches(rows []*JitSandwichRow) error {
	return insertRows(d.conn, TableJitSandwiches, rows)
}

func (d *ClickhouseDB) InsertLiquidations(rows []*LiquidationRow) error {
	return insertRows(d.conn, TableLiquidations, rows)
}

func (d *ClickhouseDB) InsertNftArbitrages(rows []*NftArbitrageRow) error {
	return insertRows(d.conn, TableNftArbitrages, rows)
}

func (d *ClickhouseDB) InsertPureArbitrages(rows []*PureArbitrageRow) error {
	return insertRows(d.conn, TablePureArbitrages, rows)
}

func (d *ClickhouseDB) RecordProcessedBlocks(blocks []*ProcessedBlock) error {
	return insertRows(d.conn, TableProcessedBlocks, blocks)
}

func (d *ClickhouseDB) QueryLastProcessedBlock(source string) (uint64, bool, error) {
	row := d.conn.QueryRow(context.Background(),
		`SELECT max(blockNumber) FROM `+qualified(TableProcessedBlocks)+` WHERE source = ?`, source)
	var block *uint64
	if err := row.Scan(&block); err != nil {
		return 0, false, fmt.Errorf("QueryLastProcessedBlock scan failed: %w", err)
	}
	if block == nil || *block == 0 {
		return 0, false, nil
	}
	return *block, true, nil
}

func (d *ClickhouseDB) QueryDetectionCount(table string, fromBlock, toBlock uint64) (uint64, error) {
	if !slices.Contains(detectionTables, table) {
		return 0, fmt.Errorf("unknown detection table %q", table)
	}
	row := d.conn.QueryRow(context.Background(),
		`SELECT count() FROM `+qualified(table)+` WHERE blockNumber >= ? AND blockNumber <= ?`, fromBlock, toBlock)
	var n uint64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("query detection count of %s failed: %w", table, err)
	}
	return n, nil
}
