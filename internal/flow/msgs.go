package flow

import "github.com/abhisek/smartmath/internal/capture"

// Messages screens send up to the controller.
type (
	// NameSubmittedMsg carries an already normalized display name.
	NameSubmittedMsg struct{ Name string }
	// ChangeNameMsg asks to re-enter onboarding.
	ChangeNameMsg struct{}
	// ImageReadyMsg hands a normalized photo to the controller.
	ImageReadyMsg struct {
		Image  capture.Image
		Source string // "camera", "file" or "inbox"
	}
	// RetryMsg asks to resend the photo whose recognition failed.
	RetryMsg struct{}
	// BackMsg follows the back-edge of the current view.
	BackMsg struct{}
	// OpenTutorMsg asks to enter the tutor for the current solution.
	OpenTutorMsg struct{}
	// ToggleThemeMsg flips between the light and dark palettes.
	ToggleThemeMsg struct{}
)

// Messages the controller sends down to the capture screen.
type (
	// RecognitionStartedMsg means the image was accepted and is being solved.
	RecognitionStartedMsg struct{}
	// RecognitionFailedMsg reports a hard failure; the screen shows an alert.
	RecognitionFailedMsg struct{ Err error }
	// NothingFoundMsg reports a sentinel result; the screen shows a notice.
	NothingFoundMsg struct{}
	// RecognitionRejectedMsg means the image arrived while a request was in
	// flight and was dropped.
	RecognitionRejectedMsg struct{}
)
