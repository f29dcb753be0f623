package mailbox

import (
	"bytes"

	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/emersion/go-msgauth/dkim"
)

type DKIMResult int

const (
	DKIMNone DKIMResult = iota
	DKIMPass
	DKIMFail
	DKIMTempError
)

func (r DKIMResult) String() string {
	switch r {
	case DKIMNone:
		return "none"
	case DKIMPass:
		return "pass"
	case DKIMFail:
		return "fail"
	case DKIMTempError:
		return "temperror"
	default:
		return "unknown"
	}
}

// DKIMChecker verifies signatures on captured mail. LookupTXT overrides DNS
// for the selector record when set.
type DKIMChecker struct {
	LookupTXT func(domain string) ([]string, error)
}

// Check reports pass if any signature on the message verifies.
func (d *DKIMChecker) Check(message []byte) DKIMResult {
	var opts *dkim.VerifyOptions
	if d != nil && d.LookupTXT != nil {
		opts = &dkim.VerifyOptions{LookupTXT: d.LookupTXT}
	}

	verifications, err := dkim.VerifyWithOptions(bytes.NewReader(message), opts)
	if err != nil {
		logging.WarnLog("DKIM check error: %v", err)
		return DKIMTempError
	}
	if len(verifications) == 0 {
		return DKIMNone
	}

	for _, v := range verifications {
		if v.Err == nil {
			logging.DebugLog("DKIM check: valid signature for domain=%s", v.Domain)
			return DKIMPass
		}
		logging.DebugLog("DKIM check: signature for domain=%s failed: %v", v.Domain, v.Err)
	}
	return DKIMFail
}
