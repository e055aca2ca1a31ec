package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "site configuration not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "site configuration invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Source tree errors

func SourceUnreadable(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "source root unreadable").
		WithContext("path", path)
}

func DestUnwritable(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "destination root unwritable").
		WithContext("path", path)
}

func ClassificationAmbiguous(path string) *SiteError {
	return New(CategoryClassify, SeverityWarning, "file matches both template and data fragment rules").
		WithContext("path", path)
}

// Resolution errors

func DataFragmentMalformed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryData, SeverityError, "malformed configuration fragment").
		WithContext("path", path)
}

func ReservedKey(key, path string) *SiteError {
	return New(CategoryData, SeverityError, "reserved key in configuration fragment").
		WithContext("key", key).
		WithContext("path", path)
}

func NonBooleanFlag(key, path string) *SiteError {
	return New(CategoryData, SeverityWarning, "non-boolean value for boolean flag ignored").
		WithContext("key", key).
		WithContext("path", path)
}

func LayoutAsDocument(path string) *SiteError {
	return New(CategoryLayout, SeverityError, "layout template used as document content").
		WithContext("path", path)
}

// Build errors

func RenderFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryRender, SeverityError, "render failed").
		WithContext("path", path)
}

func BookBuildFailed(subtree string, cause error) *SiteError {
	return Wrap(cause, CategoryBook, SeverityError, "book compiler failed").
		WithContext("subtree", subtree)
}

func ManifestCorrupt(path string, cause error) *SiteError {
	return Wrap(cause, CategoryManifest, SeverityFatal, "manifest corrupt beyond recovery").
		WithContext("path", path)
}
