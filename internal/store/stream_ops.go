package store

func (s *Store) getOrCreateStream(key string) (*stream, error) {
	e, ok := s.lookup(key)
	if !ok {
		st := newStream()
		s.setEntry(key, &entry{kind: KindStream, stream: st})
		return st, nil
	}
	if e.kind != KindStream {
		return nil, ErrWrongType
	}
	return e.stream, nil
}

func (s *Store) getExistingStream(key string) (*stream, bool, error) {
	e, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.kind != KindStream {
		return nil, false, ErrWrongType
	}
	return e.stream, true, nil
}

// XAdd appends one entry to the stream at key, auto-creating it, and
// returns the resolved ID. idArg is the raw "*"/"ms-*"/"ms-seq" form
// from the command.
func (s *Store) XAdd(key, idArg string, fields []string) (StreamID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec, err := parseIDSpec(idArg)
	if err != nil {
		return StreamID{}, err
	}
	st, err := s.getOrCreateStream(key)
	if err != nil {
		return StreamID{}, err
	}
	id, err := st.append(spec, fields)
	if err != nil {
		return StreamID{}, err
	}
	s.notify(key)
	return id, nil
}

func (s *Store) XLen(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok, err := s.getExistingStream(key)
	if err != nil || !ok {
		return 0, err
	}
	return st.len(), nil
}

// XRange returns entries with startID <= ID <= endID (both inclusive,
// per XRANGE semantics). startUnbounded/endUnbounded implement "-"/"+".
func (s *Store) XRange(key string, startID, endID StreamID, startUnbounded, endUnbounded bool) ([]StreamEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok, err := s.getExistingStream(key)
	if err != nil || !ok {
		return []StreamEntry{}, err
	}
	return st.queryRange(
		rangeBound{id: startID, unbounded: startUnbounded},
		rangeBound{id: endID, unbounded: endUnbounded},
		false,
	), nil
}

// XReadAfter returns entries with ID strictly greater than afterID,
// the semantics XREAD uses for each stream in its argument list.
func (s *Store) XReadAfter(key string, afterID StreamID) ([]StreamEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok, err := s.getExistingStream(key)
	if err != nil || !ok {
		return nil, err
	}
	return st.queryRange(
		rangeBound{id: afterID},
		rangeBound{unbounded: true},
		true,
	), nil
}

// LastStreamID returns the stream's current last ID, used to resolve
// XREAD's "$" (only-new-entries) marker at the time the blocking read
// begins.
func (s *Store) LastStreamID(key string) (StreamID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(key)
	if !ok || e.kind != KindStream {
		return StreamID{}, false
	}
	if !e.stream.hasEntry {
		return StreamID{}, false
	}
	return e.stream.lastID, true
}
