package dashboard

import "sync"

// Form — состояние формы создания/редактирования ресурса.
// Начальное значение задаётся при создании и восстанавливается Reset.
type Form[In any] struct {
	mu      sync.Mutex
	initial In
	value   In
	visible bool
	editing *int64
}

func newForm[In any](initial In) *Form[In] {
	return &Form[In]{initial: initial, value: initial}
}

// Show открывает форму создания.
func (f *Form[In]) Show() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = true
}

// Hide скрывает форму, не сбрасывая введённые значения.
func (f *Form[In]) Hide() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = false
}

// Visible сообщает, открыта ли форма.
func (f *Form[In]) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

// Set запоминает введённое значение.
func (f *Form[In]) Set(v In) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
}

// Value возвращает текущее значение формы.
func (f *Form[In]) Value() In {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Reset возвращает форму к начальному значению и выходит из редактирования.
func (f *Form[In]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = f.initial
	f.editing = nil
}

// StartEdit переводит форму в режим редактирования элемента id.
func (f *Form[In]) StartEdit(id int64, current In) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editing = &id
	f.value = current
	f.visible = true
}

// Editing возвращает id редактируемого элемента.
func (f *Form[In]) Editing() (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editing == nil {
		return 0, false
	}
	return *f.editing, true
}

// StopEdit выходит из режима редактирования.
func (f *Form[In]) StopEdit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editing = nil
}
