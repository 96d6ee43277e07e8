package store

func (s *Store) getOrCreateList(key string) (*list, error) {
	e, ok := s.lookup(key)
	if !ok {
		l := newList()
		s.setEntry(key, &entry{kind: KindList, list: l})
		return l, nil
	}
	if e.kind != KindList {
		return nil, ErrWrongType
	}
	return e.list, nil
}

func (s *Store) getExistingList(key string) (*list, bool, error) {
	e, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.kind != KindList {
		return nil, false, ErrWrongType
	}
	return e.list, true, nil
}

// LPush adds elements to the head of the list, one at a time, so that
// the last argument ends up closest to the head.
func (s *Store) LPush(key string, values ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.getOrCreateList(key)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		l.pushFront(v)
	}
	s.notify(key)
	return l.length, nil
}

// RPush adds elements to the tail of the list.
func (s *Store) RPush(key string, values ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.getOrCreateList(key)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		l.pushBack(v)
	}
	s.notify(key)
	return l.length, nil
}

func (s *Store) popN(key string, count int, fromHead bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok, err := s.getExistingList(key)
	if err != nil || !ok || l.length == 0 {
		return nil, err
	}
	if count <= 0 {
		count = 1
	}
	if count > l.length {
		count = l.length
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var v string
		var ok bool
		if fromHead {
			v, ok = l.popFront()
		} else {
			v, ok = l.popBack()
		}
		if !ok {
			break
		}
		result = append(result, v)
	}
	if l.length == 0 {
		s.deleteEntry(key)
	}
	return result, nil
}

func (s *Store) LPop(key string, count int) ([]string, error) { return s.popN(key, count, true) }
func (s *Store) RPop(key string, count int) ([]string, error) { return s.popN(key, count, false) }

func (s *Store) LLen(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok, err := s.getExistingList(key)
	if err != nil || !ok {
		return 0, err
	}
	return l.length, nil
}

func (s *Store) LRange(key string, start, stop int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok, err := s.getExistingList(key)
	if err != nil || !ok {
		return []string{}, err
	}
	return l.Range(start, stop), nil
}

func (s *Store) LIndex(key string, index int) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok, err := s.getExistingList(key)
	if err != nil || !ok {
		return "", false, err
	}
	return l.getAt(index)
}

func (s *Store) LSet(key string, index int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok, err := s.getExistingList(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSuchKey
	}
	if !l.setAt(index, value) {
		return ErrIndexOutOfRange
	}
	s.notify(key)
	return nil
}

// LRem removes up to |count| occurrences of value: count > 0 scans
// head-to-tail, count < 0 scans tail-to-head, count == 0 removes all.
func (s *Store) LRem(key string, count int, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok, err := s.getExistingList(key)
	if err != nil || !ok || l.length == 0 {
		return 0, err
	}

	removed := 0
	toRemove := count
	switch {
	case count == 0:
		toRemove = l.length
	case count < 0:
		toRemove = -count
	}

	if count >= 0 {
		node := l.head
		for node != nil && removed < toRemove {
			next := node.next
			if node.value == value {
				l.removeNode(node)
				removed++
			}
			node = next
		}
	} else {
		node := l.tail
		for node != nil && removed < toRemove {
			prev := node.prev
			if node.value == value {
				l.removeNode(node)
				removed++
			}
			node = prev
		}
	}
	if l.length == 0 {
		s.deleteEntry(key)
	}
	return removed, nil
}

func (s *Store) LTrim(key string, start, stop int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok, err := s.getExistingList(key)
	if err != nil || !ok {
		return err
	}
	l.trim(start, stop)
	if l.length == 0 {
		s.deleteEntry(key)
	}
	return nil
}

// LInsert inserts value before/after the first occurrence of pivot,
// returning the new length, or -1 if pivot was not found.
func (s *Store) LInsert(key string, before bool, pivot, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok, err := s.getExistingList(key)
	if err != nil || !ok || l.length == 0 {
		return 0, err
	}
	node := l.find(pivot, true)
	if node == nil {
		return -1, nil
	}
	if before {
		l.insertBefore(node, value)
	} else {
		l.insertAfter(node, value)
	}
	s.notify(key)
	return l.length, nil
}

// LMove atomically pops from one end of src and pushes onto one end of
// dst (possibly the same list), the primitive BLMOVE/RPOPLPUSH build
// on.
func (s *Store) LMove(src, dst string, fromHead, toHead bool) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcList, ok, err := s.getExistingList(src)
	if err != nil || !ok || srcList.length == 0 {
		return "", false, err
	}
	var v string
	if fromHead {
		v, _ = srcList.popFront()
	} else {
		v, _ = srcList.popBack()
	}
	if srcList.length == 0 {
		s.deleteEntry(src)
	}

	dstList, err := s.getOrCreateList(dst)
	if err != nil {
		return "", false, err
	}
	if toHead {
		dstList.pushFront(v)
	} else {
		dstList.pushBack(v)
	}
	s.notify(src)
	s.notify(dst)
	return v, true, nil
}
