package cache

// Cache keys, one per entity family. Key names are kept from the
// historical store layout so existing cache files stay readable.
const (
	KeyHomework    = "pronote:cache_homework"
	KeyDiscussions = "pronote:cache_discussions"
	KeyVieScolaire = "pronote:cache_vie_scolaire"
)
