package config

import "time"

// Path config
const (
	LogPath    = "./logs/"
	ConfigPath = "./"
)

// Log rotation, overridable with log.maxSizeMB and log.maxBackups
const (
	LOG_MAX_SIZE_MB = 50
	LOG_MAX_BACKUPS = 3 // rotated files kept per log, 0 truncates in place
)

// Input config
const (
	MIN_START_BLOCK = 12000000 // classified protocols are not deployed before this height
)

// Network config
const (
	DefaultRetryTimes    = 3
	DefaultRetryInterval = 50 * time.Millisecond
	DefaultTimeout       = 20 * time.Second
)

// Fetch config
const (
	// Asset kind probes, batched eth_call requests
	// decimals() answers are tiny, supportsInterface() triggers heavier ERC165 paths
	DECIMALS_BATCH_SIZE           = 100
	SUPPORTS_INTERFACE_BATCH_SIZE = 50
	PROBE_PARALLEL_NUM            = 4 // batches in flight per resolution
	PROBE_CALL_TIMEOUT            = 10 * time.Second
	PROBE_RETRY_INITIAL_INTERVAL  = 200 * time.Millisecond
	PROBE_RETRY_MAX_INTERVAL      = 10 * time.Second

	ETH_FETCH_BLOCK_MAX_GAP        = 7200 // roughly one day of blocks
	ETH_FETCH_BLOCK_LOWER          = 1    // process as soon as one new block is available
	ETH_FETCH_BLOCK_LIMIT          = 32   // blocks processed per round
	ETH_FETCH_BLOCK_LONG_INTERVAL  = 12 * time.Second
	ETH_FETCH_BLOCK_SHORT_INTERVAL = 200 * time.Millisecond

	CLASSIFIED_FETCH_RETRYS = 3 // number of retries when loading classified blocks from a URL
)

// Detection config
const (
	DETECT_PARALLEL_NUM = 8 // number of blocks processed in parallel

	AMOUNT_MATCH_PERCENT = 1 // swap output vs next swap input, symmetric percent difference
	ARBITRAGE_MAX_HOPS   = 0 // 0 means no hop budget

	// Pure arbitrage suspicion score
	SCORE_SPENT_MULTIPLIER          = 8
	SCORE_NON_ZERO_MULTIPLIER       = 10
	SCORE_SENDER_MULTIPLIER         = 10
	SCORE_RECIPIENT_MULTIPLIER      = 5
	SCORE_SENDER_SOLVENT_MULTIPLIER = 4
	SCORE_THRESHOLD                 = 1000
)

// Storage config
const (
	DatabaseName = "mevwatch"

	REDIS_ASSET_KIND_HASH = "asset_kinds"
	KAFKA_BATCH_TIMEOUT   = 10 * time.Millisecond
	KAFKA_DEFAULT_TOPIC   = "mev-detections"
)
