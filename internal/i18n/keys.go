// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess      = "success"
	KeyError        = "error"
	KeyAccessDenied = "access_denied"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidInitData    = "auth.invalid_init_data"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"

	// Offers
	KeyOfferCreated      = "offer.created"
	KeyOfferUpdated      = "offer.updated"
	KeyOfferDeleted      = "offer.deleted"
	KeyOfferNotFound     = "offer.not_found"
	KeyOfferNotActive    = "offer.not_active"
	KeyOfferPaused       = "offer.paused"
	KeyOfferResumed      = "offer.resumed"
	KeyOfferCancelled    = "offer.cancelled"
	KeyOfferDeleteActive = "offer.delete_active"

	// Responses
	KeyResponseSubmitted    = "response.submitted"
	KeyResponseAccepted     = "response.accepted"
	KeyResponseRejected     = "response.rejected"
	KeyResponseNotFound     = "response.not_found"
	KeyResponseDuplicate    = "response.duplicate"
	KeyResponseNotPending   = "response.not_pending"
	KeyResponseNotYourOffer = "response.not_your_offer"

	// Contracts
	KeyContractCreated            = "contract.created"
	KeyContractNotFound           = "contract.not_found"
	KeyContractExists             = "contract.exists"
	KeyContractWrongState         = "contract.wrong_state"
	KeyContractDeadlineExpired    = "contract.deadline_expired"
	KeyContractInvalidPostURL     = "contract.invalid_post_url"
	KeyContractPlacementSubmitted = "contract.placement_submitted"
	KeyContractVerificationPassed = "contract.verification_passed"
	KeyContractVerificationFailed = "contract.verification_failed"
	KeyContractDeleted            = "contract.deleted"
	KeyContractNotParty           = "contract.not_party"
	KeyContractFunded             = "contract.funded"

	// Channels
	KeyChannelRegistered = "channel.registered"
	KeyChannelNotFound   = "channel.not_found"
	KeyChannelNotYours   = "channel.not_yours"

	// Payments
	KeyPaymentNotFound = "payment.not_found"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// Notifications (Telegram messages)
	KeyNotifyNewResponse          = "notify.new_response"
	KeyNotifyResponseAccepted     = "notify.response_accepted"
	KeyNotifyResponseRejected     = "notify.response_rejected"
	KeyNotifyContractCreated      = "notify.contract_created"
	KeyNotifyPlacementSubmitted   = "notify.placement_submitted"
	KeyNotifyVerificationPassed   = "notify.verification_passed"
	KeyNotifyVerificationFailed   = "notify.verification_failed"
	KeyNotifyDeadlineWarning      = "notify.deadline_warning"
	KeyNotifyContractExpired      = "notify.contract_expired"
	KeyNotifyContractCompleted    = "notify.contract_completed"
	KeyNotifyPostDeleted          = "notify.post_deleted"
	KeyNotifyEarlyDeletionPenalty = "notify.early_deletion_penalty"
	KeyNotifyContractDeleted      = "notify.contract_deleted"
)
