package types

import "fmt"

// Label renders a type the way it would be written in source.
func (in *Interner) Label(id TypeID) string {
	if id == NoTypeID {
		return "<none>"
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return fmt.Sprintf("type#%d", id)
	}
	switch tt.Kind {
	case KindError:
		msg, _ := in.ErrorMessage(id)
		return "<error: " + msg + ">"
	case KindClass:
		info, _ := in.ClassInfo(id)
		return info.Name
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	for name, named := range in.names {
		if named == id {
			return name
		}
	}
	return tt.Kind.String()
}
