package reputation

// ActionKind enumerates the credit-affecting event kinds. The point values
// are fixed constants, not configuration: external consumers of the ledger
// depend on them.
type ActionKind string

const (
	ActionView          ActionKind = "VIEW"
	ActionDailyLogin    ActionKind = "DAILY_LOGIN"
	ActionComment       ActionKind = "COMMENT"
	ActionCommentUpvote ActionKind = "COMMENT_UPVOTE"
	ActionPost          ActionKind = "POST"
	ActionPostUpvote    ActionKind = "POST_UPVOTE"
	ActionRankingUpvote ActionKind = "RANKING_UPVOTE"
	ActionSpamDetected  ActionKind = "SPAM_DETECTED"
	ActionContentFlag   ActionKind = "CONTENT_FLAGGED"
)

var creditPoints = map[ActionKind]float64{
	ActionView:          0.5,
	ActionDailyLogin:    1,
	ActionComment:       2,
	ActionCommentUpvote: 1,
	ActionPost:          10,
	ActionPostUpvote:    2,
	ActionRankingUpvote: 1,
	ActionSpamDetected:  -10,
	ActionContentFlag:   -20,
}

// PointsFor returns the point value for an action kind, and whether the kind
// is known.
func PointsFor(kind ActionKind) (float64, bool) {
	points, ok := creditPoints[kind]
	return points, ok
}
