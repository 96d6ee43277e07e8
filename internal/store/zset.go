package store

// ZSetMember is a (member, score) pair returned from range queries.
type ZSetMember struct {
	Member string
	Score  float64
}

// zset is a sorted set: a skip list for ordered range scans plus a
// member->score map for O(1) score lookups, mirroring how Redis itself
// layers ZSCORE on top of its skip list.
type zset struct {
	sl     *skipList
	scores map[string]float64
}

func newZSet() *zset {
	return &zset{sl: newSkipList(), scores: make(map[string]float64)}
}

// add inserts or updates member's score. It reports whether member was
// newly added (as opposed to merely re-scored).
func (z *zset) add(member string, score float64) bool {
	if old, exists := z.scores[member]; exists {
		if old == score {
			return false
		}
		z.sl.delete(member, old)
		z.sl.insert(member, score)
		z.scores[member] = score
		return false
	}
	z.sl.insert(member, score)
	z.scores[member] = score
	return true
}

func (z *zset) score(member string) (float64, bool) {
	s, ok := z.scores[member]
	return s, ok
}

func (z *zset) remove(member string) bool {
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	delete(z.scores, member)
	z.sl.delete(member, score)
	return true
}

func (z *zset) len() int { return len(z.scores) }

func (z *zset) rank(member string, reverse bool) (int, bool) {
	score, ok := z.scores[member]
	if !ok {
		return 0, false
	}
	r := z.sl.getRank(member, score)
	if r < 0 {
		return 0, false
	}
	if reverse {
		return z.len() - 1 - r, true
	}
	return r, true
}

func (z *zset) rangeByScore(min, max float64, offset, count int, reverse bool) []ZSetMember {
	return z.sl.getRange(min, max, offset, count, reverse)
}

func (z *zset) rangeByRank(start, stop int, reverse bool) []ZSetMember {
	return z.sl.getRangeByRank(start, stop, reverse)
}

func (z *zset) incrBy(member string, delta float64) float64 {
	cur, ok := z.scores[member]
	if ok {
		z.sl.delete(member, cur)
	}
	newScore := cur + delta
	z.sl.insert(member, newScore)
	z.scores[member] = newScore
	return newScore
}

func (z *zset) countInRange(min, max float64) int {
	return z.sl.countInRange(min, max)
}

func (z *zset) popMin() (ZSetMember, bool) {
	m, ok := z.sl.popMin()
	if ok {
		delete(z.scores, m.Member)
	}
	return m, ok
}

func (z *zset) popMax() (ZSetMember, bool) {
	m, ok := z.sl.popMax()
	if ok {
		delete(z.scores, m.Member)
	}
	return m, ok
}
