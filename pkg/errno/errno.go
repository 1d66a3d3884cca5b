package errno

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e *Errno) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error carrying a more specific message
func (e *Errno) WithMessage(msg string) *Errno {
	return &Errno{Code: e.Code, Message: msg}
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.Code, typed.Message
	default:
		return InternalServerError.Code, err.Error()
	}
}

// Common Errors
var (
	OK                  = &Errno{Code: 0, Message: "Success"}
	InternalServerError = &Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = &Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = &Errno{Code: 10004, Message: "Database error"}
)

// Business Errors (20000+)
var (
	ErrCampaignNotFound      = &Errno{Code: 20101, Message: "Campaign not found"}
	ErrCampaignNotActive     = &Errno{Code: 20102, Message: "Campaign is not accepting donations"}
	ErrOrganizerNotOnboarded = &Errno{Code: 20103, Message: "Organizer has not completed payout onboarding"}
	ErrAmountBelowMinimum    = &Errno{Code: 20104, Message: "Donation amount is below the minimum"}
	ErrRateLimited           = &Errno{Code: 20105, Message: "Too many checkout attempts, try again later"}
	ErrRewardTierNotFound    = &Errno{Code: 20106, Message: "Reward tier not found"}
	ErrDonationNotFound      = &Errno{Code: 20201, Message: "Donation not found"}
	ErrOrganizerNotFound     = &Errno{Code: 20202, Message: "Organizer not found"}
	ErrInvalidSignature      = &Errno{Code: 20301, Message: "Webhook signature verification failed"}
	ErrEventNotFound         = &Errno{Code: 20302, Message: "Webhook event not found"}
	ErrProcessor             = &Errno{Code: 20401, Message: "Payment processor request failed"}
)
