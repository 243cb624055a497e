package core

const (
	DocumentTypeInitialize = "timeline.initialize"
	DocumentTypePost       = "post.create"
	DocumentTypeLike       = "post.like"
	DocumentTypeUnlike     = "post.unlike"
	DocumentTypeDelete     = "post.delete"
	DocumentTypeComment    = "comment.create"
)

const (
	ReceiptStatusPending = "pending"
	ReceiptStatusSuccess = "success"
	ReceiptStatusFailure = "failure"
)

const (
	MinContentLength = 3
	MaxContentLength = 500
)

const (
	AnonymousOwner = "anonymous"
)

// DocumentType returns the signed document type used for the intent
func DocumentType(kind IntentKind) string {
	switch kind {
	case IntentInitializeTimeline:
		return DocumentTypeInitialize
	case IntentCreatePost:
		return DocumentTypePost
	case IntentLikePost:
		return DocumentTypeLike
	case IntentUnlikePost:
		return DocumentTypeUnlike
	case IntentDeletePost:
		return DocumentTypeDelete
	case IntentAddComment:
		return DocumentTypeComment
	default:
		return ""
	}
}
