package generation

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/futig/docgen-gateway/internal/entity"
)

// ContentPlaceholder is the accumulated content of a session before its first chunk
const ContentPlaceholder = "Generating your document..."

const chunkSeparator = "\n\n"

// Status is the part of a session the bridge reacts to
type Status struct {
	ConnectionURL      string
	IsGenerating       bool
	CompletionReceived bool
	Progress           int
}

// Listener is notified after every store mutation
type Listener func(Status)

type sessionState struct {
	projectID     string
	documentID    string
	view          entity.View
	questions     []entity.Question
	currentIndex  int
	answered      map[int]struct{}
	connectionURL string
	isGenerating  bool
	progress      int
	accumulated   string
	displayed     string
	completion    bool
	preview       *entity.PreviewPayload
	failure       string
}

// Store holds the generation session of one document type.
//
// Generation fields (progress, content, completion) only move while the session is generating
// and not yet complete. Turning generation off resets them; progress and chunks arriving
// outside that window are ignored.
type Store struct {
	docType entity.DocumentType
	views   []entity.View

	mu        sync.RWMutex
	st        sessionState
	nextID    uint64
	listeners map[uint64]Listener
}

func NewStore(spec DocumentSpec) *Store {
	s := &Store{
		docType:   spec.Type,
		views:     spec.Views(),
		listeners: make(map[uint64]Listener),
	}
	s.st = s.initialState()
	return s
}

func (s *Store) initialState() sessionState {
	return sessionState{
		view:        s.views[0],
		answered:    make(map[int]struct{}),
		accumulated: ContentPlaceholder,
	}
}

// Subscribe registers l; the returned function removes it
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// update applies fn under the write lock and notifies listeners once the lock is released
func (s *Store) update(fn func(st *sessionState) error) error {
	s.mu.Lock()
	if err := fn(&s.st); err != nil {
		s.mu.Unlock()
		return err
	}
	status := s.statusLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(status)
	}
	return nil
}

func (s *Store) statusLocked() Status {
	return Status{
		ConnectionURL:      s.st.connectionURL,
		IsGenerating:       s.st.isGenerating,
		CompletionReceived: s.st.completion,
		Progress:           s.st.progress,
	}
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.statusLocked()
}

func (s *Store) DocumentType() entity.DocumentType {
	return s.docType
}

// Snapshot returns a copy of the session safe to hand to readers
func (s *Store) Snapshot() entity.GenerationSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answered := make([]int, 0, len(s.st.answered))
	for id := range s.st.answered {
		answered = append(answered, id)
	}
	slices.Sort(answered)

	var preview *entity.PreviewPayload
	if s.st.preview != nil {
		p := *s.st.preview
		preview = &p
	}

	return entity.GenerationSession{
		DocumentType:       s.docType,
		ProjectID:          s.st.projectID,
		DocumentID:         s.st.documentID,
		View:               s.st.view,
		Questions:          slices.Clone(s.st.questions),
		CurrentIndex:       s.st.currentIndex,
		AnsweredIDs:        answered,
		ConnectionURL:      s.st.connectionURL,
		IsGenerating:       s.st.isGenerating,
		Progress:           s.st.progress,
		AccumulatedContent: s.st.accumulated,
		DisplayedContent:   s.st.displayed,
		CompletionReceived: s.st.completion,
		PreviewPayload:     preview,
		Failure:            s.st.failure,
	}
}

// SetQuestions replaces the question list. The cursor is kept unless it falls outside the new list.
func (s *Store) SetQuestions(questions []entity.Question) {
	_ = s.update(func(st *sessionState) error {
		st.questions = slices.Clone(questions)
		if st.currentIndex >= len(st.questions) {
			st.currentIndex = 0
		}
		return nil
	})
}

func indexOf(questions []entity.Question, id int) int {
	return slices.IndexFunc(questions, func(q entity.Question) bool { return q.ID == id })
}

func (s *Store) UpdateAnswer(id int, text string) error {
	return s.update(func(st *sessionState) error {
		idx := indexOf(st.questions, id)
		if idx < 0 {
			return fmt.Errorf("%w: %d", entity.ErrQuestionNotFound, id)
		}
		st.questions[idx].Answer = text
		return nil
	})
}

func (s *Store) UpdateCurrentAnswer(text string) error {
	return s.update(func(st *sessionState) error {
		if len(st.questions) == 0 {
			return fmt.Errorf("%w: no questions loaded", entity.ErrQuestionNotFound)
		}
		st.questions[st.currentIndex].Answer = text
		return nil
	})
}

// Advance moves the cursor to the next question. It is a no-op at the last question.
func (s *Store) Advance() {
	_ = s.update(func(st *sessionState) error {
		if st.currentIndex < len(st.questions)-1 {
			st.currentIndex++
		}
		return nil
	})
}

func (s *Store) GoTo(id int) error {
	return s.update(func(st *sessionState) error {
		idx := indexOf(st.questions, id)
		if idx < 0 {
			return fmt.Errorf("%w: %d", entity.ErrQuestionNotFound, id)
		}
		st.currentIndex = idx
		return nil
	})
}

// MarkAnswered confirms the answer of question id. Only questions with a non-empty answer can be confirmed.
func (s *Store) MarkAnswered(id int) error {
	return s.update(func(st *sessionState) error {
		idx := indexOf(st.questions, id)
		if idx < 0 {
			return fmt.Errorf("%w: %d", entity.ErrQuestionNotFound, id)
		}
		if strings.TrimSpace(st.questions[idx].Answer) == "" {
			return fmt.Errorf("%w: question %d", entity.ErrEmptyAnswer, id)
		}
		st.answered[id] = struct{}{}
		return nil
	})
}

// SetView moves the session to v, which must belong to the document type's view sequence
func (s *Store) SetView(v entity.View) error {
	return s.update(func(st *sessionState) error {
		if !slices.Contains(s.views, v) {
			return fmt.Errorf("%w: %s for %s", entity.ErrInvalidView, v, s.docType)
		}
		st.view = v
		return nil
	})
}

func (s *Store) SetConnectionURL(url string) {
	_ = s.update(func(st *sessionState) error {
		st.connectionURL = url
		return nil
	})
}

func (s *Store) SetProjectID(id string) {
	_ = s.update(func(st *sessionState) error {
		st.projectID = id
		return nil
	})
}

func (s *Store) SetDocumentID(id string) {
	_ = s.update(func(st *sessionState) error {
		st.documentID = id
		return nil
	})
}

// resetGeneration is the one place stale generation state is wiped
func resetGeneration(st *sessionState) {
	st.isGenerating = false
	st.progress = 0
	st.accumulated = ContentPlaceholder
	st.displayed = ""
	st.completion = false
}

// SetGenerating arms or disarms generation. Arming keeps the generation fields as they are
// and clears a previous failure; disarming resets them.
func (s *Store) SetGenerating(generating bool) {
	_ = s.update(func(st *sessionState) error {
		if !generating {
			resetGeneration(st)
			return nil
		}
		st.isGenerating = true
		st.failure = ""
		return nil
	})
}

// SetFailed ends generation with a terminal failure
func (s *Store) SetFailed(reason string) {
	_ = s.update(func(st *sessionState) error {
		resetGeneration(st)
		st.failure = reason
		return nil
	})
}

// SetProgress records progress clamped to [0, 100]
func (s *Store) SetProgress(n int) {
	_ = s.update(func(st *sessionState) error {
		if !st.isGenerating || st.completion {
			return nil
		}
		st.progress = max(0, min(100, n))
		return nil
	})
}

// AppendContent replaces the placeholder with the first chunk and appends later chunks after a blank line
func (s *Store) AppendContent(chunk string) {
	_ = s.update(func(st *sessionState) error {
		if !st.isGenerating || st.completion {
			return nil
		}
		if st.accumulated == ContentPlaceholder {
			st.accumulated = chunk
		} else {
			st.accumulated += chunkSeparator + chunk
		}
		return nil
	})
}

// SetCompletionReceived(true) completes the document: progress goes to 100 and the accumulated
// content becomes the displayed content. false only clears the flag.
func (s *Store) SetCompletionReceived(received bool) {
	_ = s.update(func(st *sessionState) error {
		if !received {
			st.completion = false
			return nil
		}
		if !st.isGenerating {
			return nil
		}
		st.completion = true
		st.progress = 100
		st.displayed = st.accumulated
		return nil
	})
}

// SetPreviewPayload stores the rendered document and switches the session to the preview
func (s *Store) SetPreviewPayload(payload entity.PreviewPayload) {
	_ = s.update(func(st *sessionState) error {
		resetGeneration(st)
		st.preview = &payload
		st.view = entity.ViewPreview
		return nil
	})
}

// Reset restores the empty session
func (s *Store) Reset() {
	_ = s.update(func(st *sessionState) error {
		*st = s.initialState()
		return nil
	})
}

// ResetScoped restores the empty session but keeps the project
func (s *Store) ResetScoped() {
	_ = s.update(func(st *sessionState) error {
		projectID := st.projectID
		*st = s.initialState()
		st.projectID = projectID
		return nil
	})
}
