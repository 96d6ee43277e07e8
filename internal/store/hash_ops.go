package store

import "strconv"

// getOrCreateHash fetches the hash at key, creating a new one (and the
// backing entry) if the key is absent. It returns ErrWrongType if key
// holds a non-hash value.
func (s *Store) getOrCreateHash(key string) (*hash, error) {
	e, ok := s.lookup(key)
	if !ok {
		h := newHash()
		s.setEntry(key, &entry{kind: KindHash, hash: h})
		return h, nil
	}
	if e.kind != KindHash {
		return nil, ErrWrongType
	}
	return e.hash, nil
}

func (s *Store) getExistingHash(key string) (*hash, bool, error) {
	e, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.kind != KindHash {
		return nil, false, ErrWrongType
	}
	return e.hash, true, nil
}

// HSet sets fields and returns the number of fields that were newly
// created (not merely updated).
func (s *Store) HSet(key string, pairs [][2]string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.getOrCreateHash(key)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, p := range pairs {
		if h.set(p[0], p[1]) {
			created++
		}
	}
	s.notify(key)
	return created, nil
}

func (s *Store) HGet(key, field string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok, err := s.getExistingHash(key)
	if err != nil || !ok {
		return "", false, err
	}
	return h.get(field)
}

func (s *Store) HMGet(key string, fields []string) ([]*string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok, err := s.getExistingHash(key)
	if err != nil {
		return nil, err
	}
	out := make([]*string, len(fields))
	if !ok {
		return out, nil
	}
	for i, f := range fields {
		if v, found := h.get(f); found {
			vv := v
			out[i] = &vv
		}
	}
	return out, nil
}

func (s *Store) HDel(key string, fields []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok, err := s.getExistingHash(key)
	if err != nil || !ok {
		return 0, err
	}
	removed := 0
	for _, f := range fields {
		if h.delete(f) {
			removed++
		}
	}
	if h.len() == 0 {
		s.deleteEntry(key)
	}
	s.notify(key)
	return removed, nil
}

func (s *Store) HExists(key, field string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok, err := s.getExistingHash(key)
	if err != nil || !ok {
		return false, err
	}
	return h.exists(field), nil
}

func (s *Store) HLen(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok, err := s.getExistingHash(key)
	if err != nil || !ok {
		return 0, err
	}
	return h.len(), nil
}

func (s *Store) HKeys(key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok, err := s.getExistingHash(key)
	if err != nil || !ok {
		return []string{}, err
	}
	return h.keys(), nil
}

func (s *Store) HVals(key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok, err := s.getExistingHash(key)
	if err != nil || !ok {
		return []string{}, err
	}
	return h.values(), nil
}

func (s *Store) HGetAll(key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok, err := s.getExistingHash(key)
	if err != nil || !ok {
		return []string{}, err
	}
	return h.getAll(), nil
}

func (s *Store) HSetNX(key, field, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.getOrCreateHash(key)
	if err != nil {
		return false, err
	}
	set := h.setNX(field, value)
	if set {
		s.notify(key)
	}
	return set, nil
}

func (s *Store) HIncrBy(key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.getOrCreateHash(key)
	if err != nil {
		return 0, err
	}
	cur := int64(0)
	if v, ok := h.get(field); ok {
		parsed, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			return 0, ErrNotInteger
		}
		cur = parsed
	}
	cur += delta
	h.set(field, strconv.FormatInt(cur, 10))
	s.notify(key)
	return cur, nil
}

func (s *Store) HIncrByFloat(key, field string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.getOrCreateHash(key)
	if err != nil {
		return 0, err
	}
	cur := float64(0)
	if v, ok := h.get(field); ok {
		parsed, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return 0, ErrNotFloat
		}
		cur = parsed
	}
	cur += delta
	h.set(field, strconv.FormatFloat(cur, 'f', -1, 64))
	s.notify(key)
	return cur, nil
}
