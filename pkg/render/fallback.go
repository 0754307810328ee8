package render

import "fmt"

// fallbackText generates a plain-text body for email types that ship without
// a .txt template. The copy mirrors the HTML templates so text-only clients
// still get a usable message.
func fallbackText(emailType string, data map[string]any) string {
	customerName := field(data, "customer_name", "Cliente")

	switch emailType {
	case "booking_created":
		return fmt.Sprintf(`Hola %s,

Tu cita ha sido confirmada:

Servicio: %s
Fecha: %s
Hora: %s
Duracion: %s minutos

Gracias por tu confianza.`,
			customerName,
			field(data, "service_type", "N/A"),
			field(data, "booking_date", "N/A"),
			field(data, "booking_time", "N/A"),
			field(data, "duration_minutes", "N/A"))

	case "booking_cancelled":
		return fmt.Sprintf(`Hola %s,

Tu cita ha sido cancelada:

Servicio: %s
Fecha: %s
Hora: %s

Gracias por tu confianza.`,
			customerName,
			field(data, "service_type", "N/A"),
			field(data, "booking_date", "N/A"),
			field(data, "booking_time", "N/A"))

	case "booking_rescheduled":
		return fmt.Sprintf(`Hola %s,

Tu cita ha sido reagendada:

Servicio: %s
Fecha anterior: %s - %s
Nueva fecha: %s - %s

Gracias por tu confianza.`,
			customerName,
			field(data, "service_type", "N/A"),
			field(data, "old_date", "N/A"),
			field(data, "old_time", "N/A"),
			field(data, "new_date", "N/A"),
			field(data, "new_time", "N/A"))

	case "reminder_24h", "reminder_1h":
		return fmt.Sprintf(`Hola %s,

Recordatorio: Tienes una cita en %s horas.

Servicio: %s
Fecha: %s
Hora: %s

Te esperamos!`,
			customerName,
			field(data, "hours_until", "24"),
			field(data, "service_type", "N/A"),
			field(data, "booking_date", "N/A"),
			field(data, "booking_time", "N/A"))

	default:
		return fmt.Sprintf(`Hola %s,

Gracias por tu confianza.`, customerName)
	}
}

// field fetches a context value as a string, substituting def when the key is
// absent or nil.
func field(data map[string]any, key, def string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return def
	}
	return fmt.Sprint(v)
}
