package kpay

import "strings"

// KPay status codes. 03 is overloaded: for some payment methods it means
// the transaction is still processing, for others it is a terminal
// failure. The free-text description is the only reliable discriminator.
const (
	StatusIDSuccessful = "01"
	StatusIDProcessing = "02"
	StatusIDAmbiguous  = "03"

	// NotFoundReturnCode means the transaction is unknown to the gateway.
	// That is not a failure: KPay may simply not have picked it up yet.
	NotFoundReturnCode = 611
)

// Resolution is the normalized domain status of a gateway response.
// At most one of Successful/Pending/Failed is set. All false means the
// status is unknown and the caller must keep the previous local state.
type Resolution struct {
	Successful bool
	Pending    bool
	Failed     bool
	NotFound   bool
	Message    string
}

func ResolveStatus(statusID, statusDescription string, returnCode int) Resolution {
	if returnCode == NotFoundReturnCode {
		return Resolution{
			NotFound: true,
			Message:  "transaction not found at gateway",
		}
	}

	switch statusID {
	case StatusIDSuccessful:
		return Resolution{
			Successful: true,
			Message:    orDefault(statusDescription, "payment successful"),
		}
	case StatusIDProcessing:
		return Resolution{
			Pending: true,
			Message: orDefault(statusDescription, "payment processing"),
		}
	case StatusIDAmbiguous:
		if strings.Contains(strings.ToLower(statusDescription), "pending") {
			return Resolution{
				Pending: true,
				Message: statusDescription,
			}
		}
		return Resolution{
			Failed:  true,
			Message: orDefault(statusDescription, "payment failed"),
		}
	default:
		return Resolution{
			Message: "unrecognized gateway status " + statusID,
		}
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
