package mailbox

import (
	"net"

	"blitiri.com.ar/go/spf"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/utils"
)

type SPFResult int

const (
	SPFSkipped SPFResult = iota
	SPFNone
	SPFNeutral
	SPFPass
	SPFFail
	SPFSoftFail
	SPFTempError
	SPFPermError
)

func (r SPFResult) String() string {
	switch r {
	case SPFSkipped:
		return "skipped"
	case SPFNone:
		return "none"
	case SPFNeutral:
		return "neutral"
	case SPFPass:
		return "pass"
	case SPFFail:
		return "fail"
	case SPFSoftFail:
		return "softfail"
	case SPFTempError:
		return "temperror"
	case SPFPermError:
		return "permerror"
	default:
		return "unknown"
	}
}

var spfResults = map[spf.Result]SPFResult{
	spf.None:      SPFNone,
	spf.Neutral:   SPFNeutral,
	spf.Pass:      SPFPass,
	spf.Fail:      SPFFail,
	spf.SoftFail:  SPFSoftFail,
	spf.TempError: SPFTempError,
	spf.PermError: SPFPermError,
}

// checkSPF evaluates the sender's SPF policy for the connecting address.
// Loopback senders are never checked.
func checkSPF(remoteIP, helo, sender string) SPFResult {
	ip := net.ParseIP(remoteIP)
	if ip == nil || ip.IsLoopback() {
		return SPFSkipped
	}

	result, err := spf.CheckHostWithSender(ip, helo, sender)
	out, ok := spfResults[result]
	if !ok {
		out = SPFNone
	}
	if err != nil {
		logging.WarnLog("SPF check error [%s] ip=%s: %v", utils.HashEmail(sender), remoteIP, err)
	}
	logging.DebugLog("SPF check result=%s [%s] ip=%s", out, utils.HashEmail(sender), remoteIP)
	return out
}
