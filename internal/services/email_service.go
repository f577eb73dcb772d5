package services

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/genovesjohn191/dealfi/internal/models"
)

type EmailService interface {
	SendWelcomeEmail(email, displayName string) error
	SendLeadSubmissionConfirmation(birddogEmail string, lead *models.Lead) error
	SendLeadWelcomeEmail(lead *models.Lead) error
	SendReferralReminder(email, firstName, role string) error
	SendReferralCancelled(email, firstName string) error
	SendPasswordResetEmail(email, token string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %q email: %w", subject, err)
	}
	return nil
}

func (s *emailService) SendWelcomeEmail(email, displayName string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to Dealfi, %s!</h2>
		<p>Thank you for registering with us. We're excited to have you on board.</p>
		<p>Your account has been successfully created.</p>
		<p>Best regards,<br>The Dealfi Team</p>
	`, displayName)
	return s.send(email, "Welcome to Dealfi!", body)
}

// SendLeadSubmissionConfirmation goes to the birddog right after their lead
// is stored. Creation never depends on this succeeding.
func (s *emailService) SendLeadSubmissionConfirmation(birddogEmail string, lead *models.Lead) error {
	body := fmt.Sprintf(`
		<h2>Lead Submission Confirmation</h2>
		<p>Your lead for %s %s has been successfully submitted.</p>
		<h3>Lead Details:</h3>
		<ul>
			<li><strong>Address:</strong> %s</li>
			<li><strong>Types:</strong> %s</li>
			<li><strong>Status:</strong> Pending Assignment</li>
		</ul>
		<p>You'll receive updates as this lead progresses through the pipeline.</p>
	`, lead.FirstName, lead.LastName, lead.Address, joinTypes(lead.Types))
	return s.send(birddogEmail, "Lead Submission Confirmation", body)
}

// SendLeadWelcomeEmail goes to the client whose services were requested.
func (s *emailService) SendLeadWelcomeEmail(lead *models.Lead) error {
	body := fmt.Sprintf(`
		<h2>Welcome to Dealfi</h2>
		<p>Dear %s,</p>
		<p>Thank you for choosing Dealfi. We've received your information and our team will be in touch shortly.</p>
		<h3>Your Request Details:</h3>
		<p>Services requested: %s</p>
		<p>We'll keep you updated on the progress of your request. If you have any questions in the meantime, please don't hesitate to reach out.</p>
		<p>The Dealfi Team</p>
	`, lead.FirstName, joinTypes(lead.Types))
	return s.send(lead.Email, "Welcome to Dealfi", body)
}

func (s *emailService) SendReferralReminder(email, firstName, role string) error {
	body := fmt.Sprintf(`
		<h2>Your Invitation is Waiting</h2>
		<p>Hello %s,</p>
		<p>This is a friendly reminder that you have been invited to join our referral network as a %s.</p>
		<p>Join now to start earning commissions and growing your network!</p>
		<p>If you have any questions, please don't hesitate to reach out.</p>
		<p>The Dealfi Team</p>
	`, firstName, role)
	return s.send(email, "Reminder: Join Our Referral Network", body)
}

func (s *emailService) SendReferralCancelled(email, firstName string) error {
	body := fmt.Sprintf(`
		<h2>Referral Invitation Update</h2>
		<p>Hello %s,</p>
		<p>The referral invitation you received has been cancelled.</p>
		<p>If you're still interested in joining our network, please reach out to get a new invitation.</p>
		<p>The Dealfi Team</p>
	`, firstName)
	return s.send(email, "Referral Invitation Update", body)
}

func (s *emailService) SendPasswordResetEmail(email, token string) error {
	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your account.</p>
		<p>Use the following token to reset your password: <strong>%s</strong></p>
		<p>If you did not request this change, you can ignore this email.</p>
	`, token)
	return s.send(email, "Password reset request", body)
}

func joinTypes(types []models.LeadType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
