package discord

import "spacyboard/internal/domain"

// TranslateDomainError maps a domain error code to a user-facing message.
// Messages are in French, like the configuration errors.
func TranslateDomainError(code string) string {
	switch code {
	case "validation":
		return "Certains champs sont manquants ou invalides."
	case "no_claim_action":
		return "Ce créneau ne peut pas être réservé pour le moment."
	case "slot_not_found":
		return "Ce créneau n'existe pas sur le tableau."
	case "transport":
		return "La connexion au tableau a été perdue."
	case "missing_collaborator":
		return "Cette fonction n'est pas configurée."
	case "missing_fact_type", "unknown_fact_type", "malformed_fact":
		return "Message du serveur illisible."
	case "template_not_found":
		return "Aucun modèle de message pour cet évènement."
	default:
		return "Une erreur est survenue."
	}
}

// DomainErrorMessage resolves err's domain code to a user-facing message, or
// "" when err carries none.
func DomainErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if code := domain.Code(err); code != "" {
		return TranslateDomainError(code)
	}
	return ""
}
