package txstatus

type TXStatus byte

const (
	TXIDLE     = TXStatus(73)
	TXERR      = TXStatus(69)
	TXACT      = TXStatus(84)
	TXPREPARED = TXStatus(80)
)

type TxStatusMgr interface {
	SetTxStatus(status TXStatus)
	TxStatus() TXStatus
}

func (s TXStatus) String() string {
	switch s {
	case TXIDLE:
		return "IDLE"
	case TXERR:
		return "ERROR"
	case TXACT:
		return "ACTIVE"
	case TXPREPARED:
		return "PREPARED"
	}
	return "invalid"
}
