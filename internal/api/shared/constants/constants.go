package constants

const (
	DEFAULT_WITNESSES_LIMIT     = 50
	MAX_PAGE_SIZE               = 200
	MAX_BATCH_TEST_RECIPIENTS   = 100
	MAX_REVOCATION_REASON_BYTES = 512
	REQUEST_ID_HEADER           = "X-Request-ID"
)
