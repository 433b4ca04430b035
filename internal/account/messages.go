package account

import "studio/internal/domain"

// Flow names the form an auth error came from; some codes read differently
// per flow.
type Flow string

const (
	FlowLogin     Flow = "login"
	FlowRegister  Flow = "register"
	FlowReset     Flow = "reset"
	FlowFederated Flow = "federated"
)

type catalog map[domain.AuthCode]string

var messagesEN = catalog{
	domain.AuthInvalidCredential:  "Invalid credentials provided.",
	domain.AuthEmailInUse:         "This email is already registered.",
	domain.AuthWeakPassword:       "Password should be at least 6 characters.",
	domain.AuthSignInDisabled:     "Email/Password sign-in is disabled.",
	domain.AuthFederatedDisabled:  "Google Sign-In is not enabled.",
	domain.AuthUnauthorizedDomain: "Domain not authorized for Google Sign-In.",
	domain.AuthCancelled:          "Sign-in cancelled.",
	domain.AuthPopupBlocked:       "Pop-up blocked. Please allow pop-ups for this site.",
	domain.AuthNetwork:            "Network error. Please check your connection.",
	domain.AuthNotConfigured:      "Auth not configured. Please enable 'Email/Password' sign-in.",
	domain.AuthUnknown:            "Authentication failed. Please try again.",
}

var messagesID = catalog{
	domain.AuthInvalidCredential:  "Kredensial yang diberikan tidak valid.",
	domain.AuthEmailInUse:         "Email ini sudah terdaftar.",
	domain.AuthWeakPassword:       "Kata sandi minimal 6 karakter.",
	domain.AuthSignInDisabled:     "Masuk dengan Email/Kata sandi dinonaktifkan.",
	domain.AuthFederatedDisabled:  "Masuk dengan Google belum diaktifkan.",
	domain.AuthUnauthorizedDomain: "Domain tidak diizinkan untuk masuk dengan Google.",
	domain.AuthCancelled:          "Proses masuk dibatalkan.",
	domain.AuthPopupBlocked:       "Pop-up diblokir. Izinkan pop-up untuk situs ini.",
	domain.AuthNetwork:            "Kesalahan jaringan. Periksa koneksi Anda.",
	domain.AuthNotConfigured:      "Autentikasi belum dikonfigurasi. Aktifkan masuk dengan 'Email/Kata sandi'.",
	domain.AuthUnknown:            "Autentikasi gagal. Silakan coba lagi.",
}

var flowOverrides = map[string]map[Flow]catalog{
	"en": {
		FlowLogin: {
			domain.AuthInvalidCredential: "Incorrect email or password. If you haven't registered yet, please switch to 'Create Account'.",
		},
		FlowFederated: {
			domain.AuthUnknown: "Failed to sign in with Google.",
		},
	},
	"id": {
		FlowLogin: {
			domain.AuthInvalidCredential: "Email atau kata sandi salah. Jika belum mendaftar, pilih 'Buat Akun'.",
		},
		FlowFederated: {
			domain.AuthUnknown: "Gagal masuk dengan Google.",
		},
	},
}

// Message returns the user-facing text for an auth failure. Unknown codes
// and locales fall back to English and the generic message.
func Message(code domain.AuthCode, flow Flow, locale string) string {
	if locale != "id" {
		locale = "en"
	}
	if msg, ok := flowOverrides[locale][flow][code]; ok {
		return msg
	}
	base := messagesEN
	if locale == "id" {
		base = messagesID
	}
	if msg, ok := base[code]; ok {
		return msg
	}
	if msg, ok := flowOverrides[locale][flow][domain.AuthUnknown]; ok {
		return msg
	}
	return base[domain.AuthUnknown]
}

// ResetSentMessage confirms that a reset message went out.
func ResetSentMessage(locale string) string {
	if locale == "id" {
		return "Email atur ulang kata sandi telah dikirim! Periksa kotak masuk Anda."
	}
	return "Password reset email sent! Check your inbox."
}
