package store

func (s *Store) getOrCreateZSet(key string) (*zset, error) {
	e, ok := s.lookup(key)
	if !ok {
		z := newZSet()
		s.setEntry(key, &entry{kind: KindZSet, zset: z})
		return z, nil
	}
	if e.kind != KindZSet {
		return nil, ErrWrongType
	}
	return e.zset, nil
}

func (s *Store) getExistingZSet(key string) (*zset, bool, error) {
	e, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.kind != KindZSet {
		return nil, false, ErrWrongType
	}
	return e.zset, true, nil
}

// ZAdd adds or updates members and returns the count newly added.
func (s *Store) ZAdd(key string, members []ZSetMember) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, err := s.getOrCreateZSet(key)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, m := range members {
		if z.add(m.Member, m.Score) {
			added++
		}
	}
	s.notify(key)
	return added, nil
}

func (s *Store) ZScore(key, member string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok, err := s.getExistingZSet(key)
	if err != nil || !ok {
		return 0, false, err
	}
	score, found := z.score(member)
	return score, found, nil
}

func (s *Store) ZRem(key string, members []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok, err := s.getExistingZSet(key)
	if err != nil || !ok {
		return 0, err
	}
	removed := 0
	for _, m := range members {
		if z.remove(m) {
			removed++
		}
	}
	if z.len() == 0 {
		s.deleteEntry(key)
	}
	s.notify(key)
	return removed, nil
}

func (s *Store) ZCard(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok, err := s.getExistingZSet(key)
	if err != nil || !ok {
		return 0, err
	}
	return z.len(), nil
}

func (s *Store) ZRank(key, member string, reverse bool) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok, err := s.getExistingZSet(key)
	if err != nil || !ok {
		return 0, false, err
	}
	r, found := z.rank(member, reverse)
	return r, found, nil
}

func (s *Store) ZRange(key string, start, stop int, reverse bool) ([]ZSetMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok, err := s.getExistingZSet(key)
	if err != nil || !ok {
		return []ZSetMember{}, err
	}
	return z.rangeByRank(start, stop, reverse), nil
}

func (s *Store) ZRangeByScore(key string, min, max float64, offset, count int, reverse bool) ([]ZSetMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok, err := s.getExistingZSet(key)
	if err != nil || !ok {
		return []ZSetMember{}, err
	}
	return z.rangeByScore(min, max, offset, count, reverse), nil
}

// ZCount reports how many members score within [min, max].
func (s *Store) ZCount(key string, min, max float64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok, err := s.getExistingZSet(key)
	if err != nil || !ok {
		return 0, err
	}
	return z.countInRange(min, max), nil
}

func (s *Store) zPop(key string, count int, max bool) ([]ZSetMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok, err := s.getExistingZSet(key)
	if err != nil || !ok {
		return nil, err
	}
	result := make([]ZSetMember, 0, count)
	for i := 0; i < count; i++ {
		var m ZSetMember
		var popped bool
		if max {
			m, popped = z.popMax()
		} else {
			m, popped = z.popMin()
		}
		if !popped {
			break
		}
		result = append(result, m)
	}
	if z.len() == 0 {
		s.deleteEntry(key)
	}
	if len(result) > 0 {
		s.notify(key)
	}
	return result, nil
}

// ZPopMin removes and returns up to count of the lowest-scoring members.
func (s *Store) ZPopMin(key string, count int) ([]ZSetMember, error) {
	return s.zPop(key, count, false)
}

// ZPopMax removes and returns up to count of the highest-scoring members.
func (s *Store) ZPopMax(key string, count int) ([]ZSetMember, error) {
	return s.zPop(key, count, true)
}

func (s *Store) ZIncrBy(key, member string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, err := s.getOrCreateZSet(key)
	if err != nil {
		return 0, err
	}
	newScore := z.incrBy(member, delta)
	s.notify(key)
	return newScore, nil
}
