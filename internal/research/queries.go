package research

// ExpandQueries turns a hypothesis statement into exactly three distinct
// search queries. Expansion is deterministic: the same statement always
// yields the same queries, and no two are verbatim equal.
func ExpandQueries(statement string) []string {
	return []string{
		statement,
		statement + " market data",
		statement + " industry analysis",
	}
}
